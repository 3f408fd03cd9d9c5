package usecase

import (
	"github.com/kirillkom/report-etl/internal/core/classify"
	"github.com/kirillkom/report-etl/internal/core/coerce"
	"github.com/kirillkom/report-etl/internal/core/domain"
	"github.com/kirillkom/report-etl/internal/core/normalize"
	"github.com/kirillkom/report-etl/internal/core/validate"
)

// ProcessTable runs one raw table through normalization, synonym
// resolution, shape detection, coercion and validation. Pure and
// side-effect-free, so files can be processed concurrently.
func ProcessTable(raw domain.Table) domain.ProcessedFile {
	t := normalize.Columns(raw)
	t = normalize.ResolveSynonyms(t)

	shape := classify.Detect(t)

	t = coerce.Common(t)
	t = coerce.ByShape(t, shape)

	out := domain.ProcessedFile{Source: raw.Source, Shape: shape}
	res := validate.Validate(t, shape)
	if res.OK {
		out.Valid = t
		return out
	}
	out.Invalid = t
	out.Diagnostic = res.Summary
	return out
}
