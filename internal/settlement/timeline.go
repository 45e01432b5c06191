package settlement

import (
	"sort"
	"time"
)

// typePrecedence orders events that share a timestamp, so a freshly created
// and immediately issued document replays in a deterministic order.
func typePrecedence(t EventType) int {
	switch t {
	case EventCreated:
		return 0
	case EventIssued:
		return 1
	case EventCreditNote, EventPayment:
		return 2
	case EventPaid:
		return 3
	default:
		return 4
	}
}

// BuildTimeline produces the display-ordered event sequence for a document.
// It consumes the raw credit notes and payments, not the computed summary
// fields, except for Summary.FullyPaid which gates the synthetic paid event.
// The result is fully re-derived on every call, so a caller refreshing its
// data gets an identical sequence for an identical snapshot.
func BuildTimeline(doc DocumentMeta, creditNotes []CreditNote, payments []Payment, summary Summary) ([]Event, error) {
	events := make([]Event, 0, len(creditNotes)+len(payments)+3)

	if doc.CreatedAt != nil {
		events = append(events, Event{
			ID:        doc.ID + ":created",
			Type:      EventCreated,
			Timestamp: *doc.CreatedAt,
		})
	}

	if doc.Issued {
		issuedAt := doc.InvoiceDate
		if doc.IssuedAt != nil {
			issuedAt = *doc.IssuedAt
		}
		events = append(events, Event{
			ID:        doc.ID + ":issued",
			Type:      EventIssued,
			Timestamp: issuedAt,
		})
	}

	for _, note := range creditNotes {
		gross, err := note.GrossAmount()
		if err != nil {
			return nil, err
		}
		amount := gross
		events = append(events, Event{
			ID:        note.ID,
			Type:      EventCreditNote,
			Timestamp: note.Date,
			Amount:    &amount,
		})
	}

	for _, payment := range payments {
		amount := payment.Amount
		events = append(events, Event{
			ID:        payment.ID,
			Type:      EventPayment,
			Timestamp: payment.Date,
			Amount:    &amount,
		})
	}

	if summary.FullyPaid && len(payments) > 0 {
		events = append(events, Event{
			ID:        doc.ID + ":paid",
			Type:      EventPaid,
			Timestamp: latestPaymentDate(payments),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return typePrecedence(events[i].Type) < typePrecedence(events[j].Type)
	})

	return events, nil
}

// latestPaymentDate is an explicit max-reduction; payment rows arrive in
// storage order, which is not date order.
func latestPaymentDate(payments []Payment) time.Time {
	latest := payments[0].Date
	for _, payment := range payments[1:] {
		if payment.Date.After(latest) {
			latest = payment.Date
		}
	}
	return latest
}
