package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
)

// bulkReviewConcurrency bounds parallel accept calls in AcceptAbove.
const bulkReviewConcurrency = 4

// SuggestionService backs the AI suggestion review queue.
type SuggestionService struct {
	api    SuggestionAPI
	logger *slog.Logger
}

func NewSuggestionService(api SuggestionAPI, logger *slog.Logger) *SuggestionService {
	return &SuggestionService{api: api, logger: logger}
}

// Pending lists pending suggestions, highest confidence first.
func (s *SuggestionService) Pending(ctx context.Context, tokens marketplace.Tokens, f domain.SuggestionFilter) ([]domain.Suggestion, int, error) {
	if f.MinConfidence < 0 || f.MinConfidence > 1 {
		return nil, 0, apperrors.InvalidInput("min_confidence must be between 0 and 1")
	}

	page, err := s.api.ListSuggestions(ctx, tokens, domain.SuggestionPending, f)
	if err != nil {
		return nil, 0, err
	}
	out := pendingAbove(page.Suggestions, f.MinConfidence)
	domain.SortByConfidence(out)
	return out, page.Total, nil
}

// allPending walks the queue from f.Offset to the end. It stops at Total, on
// an empty page, or on a page that brings no suggestion it has not seen.
func (s *SuggestionService) allPending(ctx context.Context, tokens marketplace.Tokens, f domain.SuggestionFilter) ([]domain.Suggestion, error) {
	var all []domain.Suggestion
	seen := map[string]struct{}{}
	for {
		page, err := s.api.ListSuggestions(ctx, tokens, domain.SuggestionPending, f)
		if err != nil {
			return nil, err
		}
		fresh := 0
		for _, sg := range page.Suggestions {
			if _, dup := seen[sg.ID]; dup {
				continue
			}
			seen[sg.ID] = struct{}{}
			fresh++
			all = append(all, sg)
		}
		f.Offset += len(page.Suggestions)
		if fresh == 0 || f.Offset >= page.Total {
			break
		}
	}
	out := pendingAbove(all, f.MinConfidence)
	domain.SortByConfidence(out)
	return out, nil
}

func pendingAbove(list []domain.Suggestion, minConfidence float64) []domain.Suggestion {
	out := make([]domain.Suggestion, 0, len(list))
	for _, sg := range list {
		if sg.Confidence < minConfidence {
			continue
		}
		if sg.Status != "" && sg.Status != domain.SuggestionPending {
			continue
		}
		out = append(out, sg)
	}
	return out
}

// Accept applies one suggestion. Failures are reported in the result; the
// error is set only when the session is gone.
func (s *SuggestionService) Accept(ctx context.Context, tokens marketplace.Tokens, id string) (domain.ReviewResult, error) {
	return s.review(ctx, domain.ReviewAccept, id, func() (*domain.Suggestion, error) {
		return s.api.AcceptSuggestion(ctx, tokens, id)
	})
}

// Reject dismisses one suggestion with an optional reason.
func (s *SuggestionService) Reject(ctx context.Context, tokens marketplace.Tokens, id, reason string) (domain.ReviewResult, error) {
	return s.review(ctx, domain.ReviewReject, id, func() (*domain.Suggestion, error) {
		return s.api.RejectSuggestion(ctx, tokens, id, reason)
	})
}

// AcceptAbove accepts every pending suggestion with confidence at or above
// threshold, across all pages of the queue. The queue is read in full before
// the first accept so accepted suggestions do not shift later pages. Each suggestion gets its own result; one failure does not stop
// the rest unless the session is gone.
func (s *SuggestionService) AcceptAbove(ctx context.Context, tokens marketplace.Tokens, f domain.SuggestionFilter, threshold float64) ([]domain.ReviewResult, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, apperrors.InvalidInput("threshold must be in (0, 1]")
	}
	f.MinConfidence = threshold

	pending, err := s.allPending(ctx, tokens, f)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ReviewResult, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkReviewConcurrency)
	for i, sg := range pending {
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = domain.ReviewResult{SuggestionID: sg.ID, Action: domain.ReviewAccept, Error: "not attempted"}
				return nil
			}
			res, err := s.Accept(gctx, tokens, sg.ID)
			results[i] = res
			return err
		})
	}
	err = g.Wait()

	accepted := 0
	for i := range results {
		if results[i].OK {
			accepted++
		}
	}

	s.logger.InfoContext(ctx, "bulk accepted suggestions",
		slog.Float64("threshold", threshold),
		slog.Int("candidates", len(pending)),
		slog.Int("accepted", accepted),
	)
	return results, err
}

func (s *SuggestionService) review(ctx context.Context, action domain.ReviewAction, id string, call func() (*domain.Suggestion, error)) (domain.ReviewResult, error) {
	res := domain.ReviewResult{SuggestionID: id, Action: action}
	if id == "" {
		return res, apperrors.InvalidInput("suggestion id is required")
	}

	sg, err := call()
	if err != nil {
		suggestionReviewsTotal.WithLabelValues(string(action), "failed").Inc()
		res.Error = apperrors.UserMessage(err)
		if sessionGone(err) {
			return res, err
		}
		s.logger.WarnContext(ctx, "suggestion review failed",
			slog.String("suggestion_id", id),
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
		return res, nil
	}

	suggestionReviewsTotal.WithLabelValues(string(action), "ok").Inc()
	res.OK = true
	res.Status = sg.Status
	return res, nil
}
