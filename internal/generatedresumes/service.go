package generatedresumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-tailor/internal/render"
	"resume-tailor/internal/shared/apperr"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/storage/object"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/shared/util"
)

const opSave = "generatedresumes.save"

// Service renders tailored résumé text and keeps the documents per session.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
}

// Render turns plain text into DOCX bytes without storing them.
func (s *Service) Render(text string) ([]byte, error) {
	docx, err := render.GenerateDOCX(text)
	if err != nil {
		return nil, err
	}
	metrics.IncDocumentsGenerated()
	return docx, nil
}

// Save renders text and stores the document in the session's namespace. Any
// failure after rendering is a SaveFailed.
func (s *Service) Save(ctx context.Context, sessionKey, text, fileName string) (GeneratedResume, error) {
	if s.Store == nil {
		return GeneratedResume{}, apperr.New(apperr.SaveFailed, opSave, "no object store configured")
	}
	name, err := docxFileName(fileName)
	if err != nil {
		return GeneratedResume{}, apperr.Wrap(apperr.InvalidInput, opSave, err)
	}

	docx, err := s.Render(text)
	if err != nil {
		return GeneratedResume{}, apperr.Wrap(apperr.Internal, opSave, err)
	}

	storageKey, size, err := s.Store.Save(ctx, sessionKey, name, render.MimeDOCX, bytes.NewReader(docx))
	if err != nil {
		return GeneratedResume{}, apperr.Wrap(apperr.SaveFailed, opSave, fmt.Errorf("store %s: %w", name, err))
	}

	resume := GeneratedResume{
		ID:          uuid.NewString(),
		SessionHash: util.HashSessionKey(sessionKey),
		FileName:    name,
		StorageKey:  storageKey,
		SizeBytes:   size,
		CreatedAt:   time.Now().UTC(),
	}
	if s.Repo != nil {
		if err := s.Repo.Create(ctx, resume); err != nil {
			return GeneratedResume{}, apperr.Wrap(apperr.SaveFailed, opSave, fmt.Errorf("record %s: %w", resume.ID, err))
		}
	}

	telemetry.Info("generated_resume.saved", map[string]any{
		"generated_resume_id": resume.ID,
		"size_bytes":          size,
	})
	return resume, nil
}

// Open returns a stored document of the session for download.
func (s *Service) Open(ctx context.Context, sessionKey, generatedResumeID string) (GeneratedResume, io.ReadCloser, error) {
	if s.Repo == nil || s.Store == nil {
		return GeneratedResume{}, nil, ErrNotFound
	}
	sessionHash := util.HashSessionKey(sessionKey)
	resume, err := s.Repo.GetByID(ctx, sessionHash, generatedResumeID)
	if err != nil {
		return GeneratedResume{}, nil, err
	}
	if !object.InNamespace(resume.StorageKey, sessionHash) {
		return GeneratedResume{}, nil, ErrNotFound
	}
	rc, err := s.Store.Open(ctx, resume.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return GeneratedResume{}, nil, ErrNotFound
		}
		return GeneratedResume{}, nil, err
	}
	return resume, rc, nil
}

// List returns the session's generated resumes ordered newest-first.
func (s *Service) List(ctx context.Context, sessionKey string, limit, offset int) ([]GeneratedResume, error) {
	if s.Repo == nil {
		return []GeneratedResume{}, nil
	}
	return s.Repo.ListBySession(ctx, util.HashSessionKey(sessionKey), limit, offset)
}

// docxFileName defaults an empty name and forces the .docx extension.
func docxFileName(fileName string) (string, error) {
	name := strings.TrimSpace(fileName)
	if name == "" {
		return render.DefaultFileName, nil
	}
	name, err := util.SanitizeFileName(name)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(strings.ToLower(name), ".docx") {
		name += ".docx"
	}
	return name, nil
}
