package services

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/codyseavey/cardscout/internal/jsonval"
	"github.com/codyseavey/cardscout/internal/metrics"
	"github.com/codyseavey/cardscout/internal/models"
)

// Attempt is one candidate endpoint with its query parameters.
type Attempt struct {
	URL    string
	Params url.Values
}

// Fetcher performs a GET and decodes the body as JSON. Non-2xx statuses
// come back as *HTTPStatusError.
type Fetcher interface {
	FetchJSON(ctx context.Context, rawURL string, params url.Values) (jsonval.Value, error)
}

// RecordFilter decides whether a projected record counts as a result.
type RecordFilter func(models.CardSummary) bool

// Prober tries an ordered list of endpoint attempts and stops at the first
// one whose response holds at least one accepted record.
type Prober struct {
	fetcher Fetcher
	filter  RecordFilter
}

// NewProber creates a prober. A nil filter accepts every record.
func NewProber(fetcher Fetcher, filter RecordFilter) *Prober {
	return &Prober{fetcher: fetcher, filter: filter}
}

// Probe runs the attempts in order. Each failure is recorded with its
// 1-based attempt number; a cancelled context ends the sequence early.
// The result always carries TotalAttempts = len(attempts).
func (p *Prober) Probe(ctx context.Context, attempts []Attempt) *models.ProbeResult {
	result := &models.ProbeResult{
		TotalAttempts: len(attempts),
		Errors:        []models.AttemptError{},
	}

	for i, attempt := range attempts {
		number := i + 1
		params := cleanParams(attempt.Params)

		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, models.AttemptError{
				Attempt: number,
				URL:     attempt.URL,
				Params:  flattenParams(params),
				Status:  models.AttemptStatusError,
				Error:   err.Error(),
			})
			break
		}

		data, err := p.fetcher.FetchJSON(ctx, attempt.URL, params)
		if err != nil {
			failure := models.AttemptError{
				Attempt:    number,
				URL:        attempt.URL,
				Params:     flattenParams(params),
				Status:     models.AttemptStatusError,
				Error:      err.Error(),
				StatusCode: StatusCodeOf(err),
			}
			if IsBlocked(err) {
				failure.Status = models.AttemptStatusBlocked
			}
			result.Errors = append(result.Errors, failure)
			metrics.ProbeAttemptsTotal.WithLabelValues(string(failure.Status)).Inc()
			log.Printf("Probe attempt %d/%d %s failed: %v", number, len(attempts), attempt.URL, err)
			continue
		}

		cards := p.accepted(ExtractRecords(data))
		if len(cards) == 0 {
			result.Errors = append(result.Errors, models.AttemptError{
				Attempt:      number,
				URL:          attempt.URL,
				Params:       flattenParams(params),
				Status:       models.AttemptStatusNoItems,
				ResponseKeys: data.Keys(),
			})
			metrics.ProbeAttemptsTotal.WithLabelValues(string(models.AttemptStatusNoItems)).Inc()
			continue
		}

		result.Success = true
		result.Endpoint = attempt.URL
		result.Params = flattenParams(params)
		result.AttemptNumber = number
		result.ItemsCount = len(cards)
		result.Data = data
		result.Cards = cards

		metrics.ProbeAttemptsTotal.WithLabelValues("success").Inc()
		metrics.ProbeWinningAttempt.Observe(float64(number))
		return result
	}

	metrics.ProbeExhaustedTotal.Inc()
	return result
}

func (p *Prober) accepted(records []jsonval.Value) []models.CardSummary {
	cards := make([]models.CardSummary, 0, len(records))
	for _, rec := range records {
		card := ProjectCard(rec)
		if p.filter != nil && !p.filter(card) {
			continue
		}
		cards = append(cards, card)
	}
	return cards
}

// cleanParams drops parameters whose values are all blank.
func cleanParams(params url.Values) url.Values {
	cleaned := url.Values{}
	for key, values := range params {
		for _, v := range values {
			if strings.TrimSpace(v) != "" {
				cleaned.Add(key, v)
			}
		}
	}
	return cleaned
}

func flattenParams(params url.Values) map[string]string {
	flat := make(map[string]string, len(params))
	for key := range params {
		flat[key] = params.Get(key)
	}
	return flat
}
