package model

import "fmt"

// PersonKind — список, к которому относится имя.
type PersonKind string

const (
	// KindMemorial — список поминовения
	KindMemorial PersonKind = "memorial"
	// KindHealing — список молитвы об исцелении
	KindHealing PersonKind = "healing"
)

// ParsePersonKind проверяет строку и возвращает PersonKind.
func ParsePersonKind(s string) (PersonKind, error) {
	switch PersonKind(s) {
	case KindMemorial, KindHealing:
		return PersonKind(s), nil
	default:
		return "", fmt.Errorf("недопустимый список %q, допустимые: memorial, healing", s)
	}
}

// Person — имя в одном из списков.
type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PeopleData — содержимое people.json.
type PeopleData struct {
	Memorial []Person `json:"memorial"`
	Healing  []Person `json:"healing"`
}

// List возвращает указатель на список нужного вида.
func (p *PeopleData) List(kind PersonKind) *[]Person {
	if kind == KindHealing {
		return &p.Healing
	}
	return &p.Memorial
}
