// people.go — PeopleService: списки имён memorial и healing (people.json).
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/bigkaa/goartstore/archive/internal/domain/model"
)

// PeopleService — сервис списков имён.
type PeopleService struct {
	repo   *Repository
	logger *slog.Logger
}

// NewPeopleService создаёт сервис списков имён.
func NewPeopleService(repo *Repository, logger *slog.Logger) *PeopleService {
	return &PeopleService{
		repo:   repo,
		logger: logger.With(slog.String("service", "people")),
	}
}

// List возвращает оба списка. При ошибке чтения — пустые списки.
func (s *PeopleService) List(ctx context.Context) model.PeopleData {
	people, err := s.repo.loadPeople()
	if err != nil {
		s.logger.Error("Ошибка чтения списков имён, возвращаются пустые списки",
			slog.String("error", err.Error()),
		)
	}
	return people
}

// Add добавляет имя в конец списка kind.
func (s *PeopleService) Add(ctx context.Context, kind, name string) (*model.Person, error) {
	p, err := s.mutate(kind, func(list *[]model.Person) (*model.Person, error) {
		n, err := validName(name)
		if err != nil {
			return nil, err
		}
		person := model.Person{ID: newID(), Name: n}
		*list = append(*list, person)
		return &person, nil
	})
	observe("person_add", err)
	return p, err
}

// Update меняет имя по ID.
func (s *PeopleService) Update(ctx context.Context, kind, id, name string) (*model.Person, error) {
	p, err := s.mutate(kind, func(list *[]model.Person) (*model.Person, error) {
		n, err := validName(name)
		if err != nil {
			return nil, err
		}
		i := slices.IndexFunc(*list, func(p model.Person) bool { return p.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: имя %q в списке %s", ErrNotFound, id, kind)
		}
		(*list)[i].Name = n
		person := (*list)[i]
		return &person, nil
	})
	observe("person_update", err)
	return p, err
}

// Delete удаляет имя по ID.
func (s *PeopleService) Delete(ctx context.Context, kind, id string) error {
	_, err := s.mutate(kind, func(list *[]model.Person) (*model.Person, error) {
		i := slices.IndexFunc(*list, func(p model.Person) bool { return p.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: имя %q в списке %s", ErrNotFound, id, kind)
		}
		*list = slices.Delete(*list, i, i+1)
		return nil, nil
	})
	observe("person_delete", err)
	return err
}

// mutate выполняет read-modify-write над одним списком people.json.
func (s *PeopleService) mutate(kind string, fn func(list *[]model.Person) (*model.Person, error)) (*model.Person, error) {
	k, err := model.ParsePersonKind(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	people, err := s.repo.loadPeople()
	if err != nil {
		return nil, err
	}
	person, err := fn(people.List(k))
	if err != nil {
		return nil, err
	}
	if err := s.repo.savePeople(people); err != nil {
		return nil, err
	}

	s.logger.Info("Список имён изменён",
		slog.String("kind", string(k)),
		slog.Int("memorial", len(people.Memorial)),
		slog.Int("healing", len(people.Healing)),
	)
	return person, nil
}

func validName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", fmt.Errorf("%w: имя не может быть пустым", ErrValidation)
	}
	return n, nil
}
