package webapp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// TransformRecord represents a transform record from the API
type TransformRecord struct {
	ID         int    `json:"ID"`
	ULID       string `json:"ULID"`
	Operation  string `json:"Operation"`
	InputNames string `json:"InputNames"`
	OutputName string `json:"OutputName"`
	OutputSize int64  `json:"OutputSize"`
	Status     string `json:"Status"`
	ErrorKind  string `json:"ErrorKind"`
	Detail     string `json:"Detail"`
	DurationMS int64  `json:"DurationMS"`
	CreatedAt  string `json:"CreatedAt"`
}

// PaginatedHistory represents the paginated API response
type PaginatedHistory struct {
	Transforms  []TransformRecord `json:"transforms"`
	Page        int               `json:"page"`
	PageSize    int               `json:"pageSize"`
	TotalCount  int               `json:"totalCount"`
	TotalPages  int               `json:"totalPages"`
	HasNext     bool              `json:"hasNext"`
	HasPrevious bool              `json:"hasPrevious"`
}

// HistoryPage displays past transformations with pagination
type HistoryPage struct {
	app.Compo
	transforms  []TransformRecord
	currentPage int
	totalPages  int
	totalCount  int
	hasNext     bool
	hasPrevious bool
	loading     bool
	error       string
}

// OnMount is called when the component is mounted
func (h *HistoryPage) OnMount(ctx app.Context) {
	h.currentPage = 1
	h.loading = true
	h.fetchHistory(ctx, 1)
}

// fetchHistory fetches transform records for a specific page
func (h *HistoryPage) fetchHistory(ctx app.Context, page int) {
	ctx.Async(func() {
		url := BuildAPIURL(fmt.Sprintf("/api/history?page=%d", page))
		res := app.Window().Call("fetch", url)

		res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			if len(args) == 0 {
				return nil
			}
			response := args[0]

			response.Call("json").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
				if len(args) == 0 {
					return nil
				}

				jsonData := args[0]
				jsonStr := app.Window().Get("JSON").Call("stringify", jsonData).String()

				var resp PaginatedHistory
				ctx.Dispatch(func(ctx app.Context) {
					if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
						h.error = fmt.Sprintf("Failed to parse response: %v", err)
					} else {
						h.transforms = resp.Transforms
						h.currentPage = resp.Page
						h.totalPages = resp.TotalPages
						h.totalCount = resp.TotalCount
						h.hasNext = resp.HasNext
						h.hasPrevious = resp.HasPrevious
					}
					h.loading = false
				})

				return nil
			}))

			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				h.error = "Network error"
				h.loading = false
			})
			return nil
		}))
	})
}

// onPageChange handles page navigation
func (h *HistoryPage) onPageChange(page int) func(ctx app.Context, e app.Event) {
	return func(ctx app.Context, e app.Event) {
		e.PreventDefault()
		h.loading = true
		h.error = ""
		h.fetchHistory(ctx, page)
	}
}

// Render renders the history page
func (h *HistoryPage) Render() app.UI {
	var content app.UI

	if h.loading {
		content = app.Div().Class("loading").Body(app.Text("Loading..."))
	} else if h.error != "" {
		content = app.Div().Class("error").Body(app.Text("Error: " + h.error))
	} else if len(h.transforms) == 0 {
		content = app.Div().Class("no-results").Body(app.Text("No transformations recorded yet."))
	} else {
		content = app.Div().Class("transform-list").Body(
			app.Range(h.transforms).Slice(func(i int) app.UI {
				return &TransformCard{Record: h.transforms[i]}
			}),
		)
	}

	return app.Div().
		Class("history-page").
		Body(
			app.H2().Text("Transformation History"),
			app.P().Class("page-info").Text(
				fmt.Sprintf("Showing page %d of %d (%d transformations)",
					h.currentPage, h.totalPages, h.totalCount),
			),
			content,
			h.renderPagination(),
		)
}

// renderPagination renders the pagination controls
func (h *HistoryPage) renderPagination() app.UI {
	if h.totalPages <= 1 {
		return app.Div() // No pagination needed
	}

	return app.Div().Class("pagination").Body(
		// Previous button
		app.Button().
			Class("pagination-btn").
			Disabled(!h.hasPrevious || h.loading).
			OnClick(h.onPageChange(h.currentPage - 1)).
			Body(app.Text("← Previous")),

		// Page info
		app.Span().Class("pagination-info").Body(
			app.Text(fmt.Sprintf("Page %d of %d", h.currentPage, h.totalPages)),
		),

		// Next button
		app.Button().
			Class("pagination-btn").
			Disabled(!h.hasNext || h.loading).
			OnClick(h.onPageChange(h.currentPage + 1)).
			Body(app.Text("Next →")),

		// Jump to first/last
		app.Div().Class("pagination-jump").Body(
			app.Button().
				Class("pagination-btn-small").
				Disabled(h.currentPage == 1 || h.loading).
				OnClick(h.onPageChange(1)).
				Body(app.Text("First")),
			app.Button().
				Class("pagination-btn-small").
				Disabled(h.currentPage == h.totalPages || h.loading).
				OnClick(h.onPageChange(h.totalPages)).
				Body(app.Text("Last")),
		),
	)
}

// TransformCard displays a single transform record
type TransformCard struct {
	app.Compo
	Record TransformRecord
}

// Render renders the transform card
func (t *TransformCard) Render() app.UI {
	rec := t.Record
	return app.Div().
		Class("transform-card").
		Body(
			app.Div().Class("transform-icon").Body(
				app.Text(operationIcon(rec.Operation)),
			),
			app.Div().Class("transform-info").Body(
				app.H3().Body(
					app.Text(operationTitle(rec.Operation)+" "),
					app.Span().Class(statusClass(rec.Status)).Text(rec.Status),
				),
				app.P().Class("transform-inputs").Text(rec.InputNames),
				app.P().Class("transform-meta").Text(t.metaLine()),
				app.If(rec.Status == "completed" && rec.OutputName != "", func() app.UI {
					return app.A().
						Href(BuildAPIURL("/api/download/"+rec.OutputName)).
						Class("transform-link").
						Target("_blank").
						Body(app.Text("Download Result"))
				}),
				app.If(rec.ErrorKind != "", func() app.UI {
					return app.P().Class("transform-error").Text("Failed: " + rec.ErrorKind)
				}),
			),
		)
}

// metaLine builds the one-line summary under a record
func (t *TransformCard) metaLine() string {
	rec := t.Record
	line := formatTimestamp(rec.CreatedAt) + " | " + formatDuration(rec.DurationMS)
	if rec.OutputSize > 0 {
		line += " | " + formatSize(rec.OutputSize)
	}
	return line
}

// statusClass maps a record status onto its badge CSS class
func statusClass(status string) string {
	switch status {
	case "completed":
		return "status-badge status-completed"
	case "failed":
		return "status-badge status-failed"
	default:
		return "status-badge"
	}
}

// formatSize renders a byte count in human units
func formatSize(size int64) string {
	switch {
	case size >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	case size >= 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d B", size)
	}
}

// formatDuration renders a millisecond duration for display
func formatDuration(ms int64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.1f s", float64(ms)/1000)
	}
	return fmt.Sprintf("%d ms", ms)
}

// formatTimestamp shortens an RFC3339 timestamp for display
func formatTimestamp(stamp string) string {
	parsed, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return stamp
	}
	return parsed.Format("2006-01-02 15:04")
}
