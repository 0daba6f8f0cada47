package analyses

import (
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/shared/apperr"
)

// SourceKind says where the résumé comes from.
type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceText SourceKind = "text"
)

// Input is one analysis request. File is read once; the caller keeps ownership.
type Input struct {
	SessionKey     string
	Source         SourceKind `validate:"required,oneof=file text"`
	File           io.Reader
	FileName       string
	MediaType      string `validate:"required_if=Source file"`
	ResumeText     string `validate:"required_if=Source text"`
	JobDescription string `validate:"required"`
}

var inputValidator = validator.New()

const opValidate = "analyses.validate"

// validateInput rejects a bundle before any extraction or network call. An
// unsupported media type wins over other problems so callers can suggest the
// pasted-text fallback.
func validateInput(in Input) error {
	if err := checkMediaType(in); err != nil {
		return err
	}

	trimmed := in
	trimmed.MediaType = strings.TrimSpace(in.MediaType)
	trimmed.ResumeText = strings.TrimSpace(in.ResumeText)
	trimmed.JobDescription = strings.TrimSpace(in.JobDescription)
	if err := inputValidator.Struct(trimmed); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" "+fe.Tag())
			}
			return apperr.New(apperr.InvalidInput, opValidate, strings.Join(fields, ", "))
		}
		return apperr.Wrap(apperr.InvalidInput, opValidate, err)
	}
	if in.Source == SourceFile && in.File == nil {
		return apperr.New(apperr.InvalidInput, opValidate, "File required")
	}
	return nil
}

// checkMediaType reports an uploaded file whose declared media type cannot be
// extracted. It is cheap enough to run before any job-posting fetch.
func checkMediaType(in Input) error {
	if in.Source == SourceFile && strings.TrimSpace(in.MediaType) != "" && !extract.Supported(in.MediaType) {
		return apperr.New(apperr.UnsupportedFileType, opValidate, "media type "+extract.NormalizeMediaType(in.MediaType))
	}
	return nil
}
