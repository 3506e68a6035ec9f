// Пакет openapi — контракт HTTP API архива.
// Встроенный OpenAPI-документ, интерфейс сервера и привязка параметров к chi.
package openapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var specYAML []byte

var (
	specOnce sync.Once
	specDoc  *openapi3.T
	specJSON []byte
	specErr  error
)

// GetSwagger загружает и валидирует встроенный документ.
// Результат кэшируется, документ не должен изменяться вызывающим.
func GetSwagger() (*openapi3.T, error) {
	specOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(specYAML)
		if err != nil {
			specErr = fmt.Errorf("ошибка загрузки OpenAPI-документа: %w", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			specErr = fmt.Errorf("OpenAPI-документ невалиден: %w", err)
			return
		}
		specJSON, err = json.Marshal(doc)
		if err != nil {
			specErr = fmt.Errorf("ошибка сериализации OpenAPI-документа: %w", err)
			return
		}
		specDoc = doc
	})
	return specDoc, specErr
}

// ServeSpec отдаёт документ в JSON.
func ServeSpec(w http.ResponseWriter, _ *http.Request) {
	if _, err := GetSwagger(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(specJSON)
}
