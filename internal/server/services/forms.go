package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/logging"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
	"github.com/dmitrijs2005/pagekeeper/internal/server/repositories/forms"
)

// FormInput is a form submission. FormData is any JSON value; empty means {}.
type FormInput struct {
	FormName string
	FormData json.RawMessage
}

// FormService captures and manages form submissions.
type FormService struct {
	repo   forms.Repository
	logger logging.Logger
	now    func() time.Time
}

func NewFormService(repo forms.Repository, logger logging.Logger) *FormService {
	return &FormService{
		repo:   repo,
		logger: logger.With("module", "forms"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *FormService) List(ctx context.Context) ([]*models.Form, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageError("list forms", err)
	}
	return list, nil
}

func (s *FormService) Get(ctx context.Context, id string) (*models.Form, error) {
	if !models.IsValidID(id) {
		return nil, common.ErrorNotFound
	}
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("get form", err)
	}
	return f, nil
}

func (s *FormService) GetByName(ctx context.Context, name string) (*models.Form, error) {
	if strings.TrimSpace(name) == "" {
		return nil, common.ErrorNotFound
	}
	f, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, storageError("get form by name", err)
	}
	return f, nil
}

func (s *FormService) Create(ctx context.Context, in FormInput) (*models.Form, error) {
	name := strings.TrimSpace(in.FormName)
	if name == "" {
		return nil, fmt.Errorf("%w: formName is required", common.ErrArgumentInvalid)
	}
	data, err := formData(in.FormData)
	if err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &models.Form{
		FormName:  name,
		FormData:  data,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, storageError("create form", err)
	}
	s.logger.Info(ctx, "form submitted", "id", created.ID, "name", created.FormName)
	return created, nil
}

// Update replaces the name when one is given and the data when it is
// present.
func (s *FormService) Update(ctx context.Context, id string, in FormInput) (*models.Form, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.FormName); name != "" {
		form.FormName = name
	}
	if len(bytes.TrimSpace(in.FormData)) > 0 {
		if form.FormData, err = formData(in.FormData); err != nil {
			return nil, err
		}
	}
	form.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, form); err != nil {
		return nil, storageError("update form", err)
	}
	return form, nil
}

// UpdateField sets formName or formData. value is a decoded JSON value.
func (s *FormService) UpdateField(ctx context.Context, id, field string, value any) (*models.Form, error) {
	var arg any
	switch field {
	case models.FieldFormName:
		name, ok := value.(string)
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: formName must be a non-empty string", common.ErrArgumentInvalid)
		}
		arg = strings.TrimSpace(name)
	case models.FieldFormData:
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: formData: %v", common.ErrArgumentInvalid, err)
		}
		arg = json.RawMessage(raw)
	default:
		return nil, fmt.Errorf("%w: %q is not a form field", common.ErrArgumentInvalid, field)
	}

	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	form.UpdatedAt = s.now()

	matched, err := s.repo.UpdateField(ctx, id, field, arg, form.UpdatedAt)
	if err != nil {
		return nil, storageError("update form field", err)
	}
	if !matched {
		return nil, common.ErrorNotFound
	}

	if field == models.FieldFormName {
		form.FormName = arg.(string)
	} else {
		form.FormData = arg.(json.RawMessage)
	}
	return form, nil
}

func (s *FormService) Delete(ctx context.Context, id string) (*models.Form, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, storageError("delete form", err)
	}
	if !deleted {
		return nil, common.ErrorNotFound
	}
	return form, nil
}

func formData(raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: formData is not valid JSON", common.ErrArgumentInvalid)
	}
	return raw, nil
}
