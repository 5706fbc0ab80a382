package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
)

// AssortmentQuery selects and arranges the seller's assortment table.
type AssortmentQuery struct {
	SupplierID string
	Filter     domain.AssortmentFilter
	Sort       domain.SortState
	Limit      int
	Offset     int
}

// AssortmentView is the flattened, filtered and sorted table.
type AssortmentView struct {
	Rows []domain.AssortmentRow
	// Items is the number of supplier items on the fetched page before
	// filtering; Total is the marketplace's item count.
	Items int
	Total int
}

// AssortmentService backs the seller assortment table.
type AssortmentService struct {
	api    AssortmentAPI
	logger *slog.Logger
}

func NewAssortmentService(api AssortmentAPI, logger *slog.Logger) *AssortmentService {
	return &AssortmentService{api: api, logger: logger}
}

// List fetches one page of supplier items and turns it into table rows.
func (s *AssortmentService) List(ctx context.Context, tokens marketplace.Tokens, q AssortmentQuery) (*AssortmentView, error) {
	page, err := s.api.ListSupplierItems(ctx, tokens, marketplace.SupplierItemQuery{
		SupplierID: q.SupplierID,
		Q:          q.Filter.Search,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return nil, err
	}

	rows := q.Sort.Sort(q.Filter.Apply(domain.Flatten(page.Items)))
	return &AssortmentView{Rows: rows, Items: len(page.Items), Total: page.Total}, nil
}

// EditField saves one field and reports the value to display. A failed save
// re-reads the resource and reports its current value, or edit.Previous when
// that also fails. The returned error is set only for input that was never
// sent and for a session that is gone.
func (s *AssortmentService) EditField(ctx context.Context, tokens marketplace.Tokens, edit domain.FieldEdit) (domain.EditResult, error) {
	result := domain.EditResult{Kind: edit.Kind, ID: edit.ID, Field: edit.Field}

	if err := edit.Validate(); err != nil {
		fieldEditsTotal.WithLabelValues(string(edit.Kind), "invalid").Inc()
		return result, apperrors.InvalidInput(err.Error())
	}

	saved, err := s.patch(ctx, tokens, edit)
	if err == nil {
		fieldEditsTotal.WithLabelValues(string(edit.Kind), string(domain.EditSuccess)).Inc()
		result.Status = domain.EditSuccess
		result.Value = saved
		return result, nil
	}
	if sessionGone(err) {
		return result, err
	}

	fieldEditsTotal.WithLabelValues(string(edit.Kind), string(domain.EditFailed)).Inc()
	result.Status = domain.EditFailed
	result.Error = apperrors.UserMessage(err)

	current, rerr := s.read(ctx, tokens, edit)
	if rerr != nil {
		s.logger.WarnContext(ctx, "re-read after failed edit",
			slog.String("kind", string(edit.Kind)),
			slog.String("id", edit.ID),
			slog.String("error", rerr.Error()),
		)
		result.Value = edit.Previous
		return result, nil
	}
	result.Value = current
	return result, nil
}

func (s *AssortmentService) patch(ctx context.Context, tokens marketplace.Tokens, edit domain.FieldEdit) (any, error) {
	fields := map[string]any{edit.Field: edit.Value}
	switch edit.Kind {
	case domain.EditItem:
		it, err := s.api.PatchSupplierItem(ctx, tokens, edit.ID, fields)
		if err != nil {
			return nil, err
		}
		return fieldValue(it, edit.Field)
	default:
		oc, err := s.api.PatchOfferCandidate(ctx, tokens, edit.ID, fields)
		if err != nil {
			return nil, err
		}
		return fieldValue(oc, edit.Field)
	}
}

func (s *AssortmentService) read(ctx context.Context, tokens marketplace.Tokens, edit domain.FieldEdit) (any, error) {
	switch edit.Kind {
	case domain.EditItem:
		it, err := s.api.GetSupplierItem(ctx, tokens, edit.ID)
		if err != nil {
			return nil, err
		}
		return fieldValue(it, edit.Field)
	default:
		oc, err := s.api.GetOfferCandidate(ctx, tokens, edit.ID)
		if err != nil {
			return nil, err
		}
		return fieldValue(oc, edit.Field)
	}
}

// fieldValue reads a field of v by its JSON name. Absent fields are nil.
func fieldValue(v any, field string) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode %T: %w", v, err)
	}
	return m[field], nil
}

// sessionGone reports errors that end the session rather than the operation.
func sessionGone(err error) bool {
	return errors.Is(err, apperrors.ErrSessionExpired) || errors.Is(err, apperrors.ErrSignInRequired)
}
