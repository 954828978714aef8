package webapp

import (
	"encoding/json"
	"fmt"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// ConversionPair is one supported from/to conversion and the tool behind it
type ConversionPair struct {
	From string `json:"from"`
	To   string `json:"to"`
	Via  string `json:"via"`
}

// OperationsResponse mirrors the /api/operations response
type OperationsResponse struct {
	Operations  []string         `json:"operations"`
	Conversions []ConversionPair `json:"conversions"`
}

// HomePage displays the operations the service offers
type HomePage struct {
	app.Compo
	operations  []string
	conversions []ConversionPair
	loading     bool
	error       string
}

// OnMount is called when the component is mounted
func (h *HomePage) OnMount(ctx app.Context) {
	h.loading = true
	h.fetchOperations(ctx)
}

// fetchOperations fetches the capability table from the API
func (h *HomePage) fetchOperations(ctx app.Context) {
	ctx.Async(func() {
		res := app.Window().Call("fetch", BuildAPIURL("/api/operations"))

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

				var resp OperationsResponse
				ctx.Dispatch(func(ctx app.Context) {
					if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
						h.error = fmt.Sprintf("Failed to parse response: %v", err)
					} else {
						h.operations = resp.Operations
						h.conversions = resp.Conversions
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

// Render renders the home page
func (h *HomePage) Render() app.UI {
	var content app.UI

	if h.loading {
		content = app.Div().Class("loading").Body(app.Text("Loading..."))
	} else if h.error != "" {
		content = app.Div().Class("error").Body(app.Text("Error: " + h.error))
	} else if len(h.operations) == 0 {
		content = app.Div().Class("no-results").Body(app.Text("No operations available."))
	} else {
		content = app.Div().Body(
			app.Div().Class("operation-grid").Body(
				app.Range(h.operations).Slice(func(i int) app.UI {
					return &OperationCard{Operation: h.operations[i]}
				}),
			),
			h.renderConversions(),
		)
	}

	return app.Div().
		Class("home-page").
		Body(
			app.H2().Text("Operations"),
			app.P().Class("page-info").Text(
				"Every operation takes a multipart upload and answers with a download link for the result.",
			),
			content,
		)
}

// renderConversions renders the supported conversion pairs table
func (h *HomePage) renderConversions() app.UI {
	if len(h.conversions) == 0 {
		return app.Div()
	}

	return app.Div().Class("conversion-section").Body(
		app.H3().Text("Supported Conversions"),
		app.Table().Class("conversion-table").Body(
			app.THead().Body(
				app.Tr().Body(
					app.Th().Text("From"),
					app.Th().Text("To"),
					app.Th().Text("Engine"),
				),
			),
			app.TBody().Body(
				app.Range(h.conversions).Slice(func(i int) app.UI {
					pair := h.conversions[i]
					return app.Tr().Body(
						app.Td().Text(pair.From),
						app.Td().Text(pair.To),
						app.Td().Text(pair.Via),
					)
				}),
			),
		),
	)
}

// OperationCard displays a single operation card
type OperationCard struct {
	app.Compo
	Operation string
}

// Render renders the operation card
func (o *OperationCard) Render() app.UI {
	return app.Div().
		Class("operation-card").
		Body(
			app.Div().Class("operation-icon").Body(
				app.Text(operationIcon(o.Operation)),
			),
			app.Div().Class("operation-info").Body(
				app.H3().Text(operationTitle(o.Operation)),
				app.P().Class("operation-blurb").Text(operationBlurb(o.Operation)),
				app.Code().Class("operation-endpoint").Text(
					"POST /api/transform/" + o.Operation,
				),
			),
		)
}

// operationTitle returns the display name of an operation
func operationTitle(op string) string {
	switch op {
	case "merge":
		return "Merge"
	case "split":
		return "Split"
	case "reorder":
		return "Reorder Pages"
	case "compress":
		return "Compress"
	case "watermark":
		return "Watermark"
	case "protect":
		return "Protect"
	case "unlock":
		return "Unlock"
	case "extract-images":
		return "Extract Images"
	case "ocr":
		return "OCR"
	case "convert":
		return "Convert"
	default:
		return op
	}
}

// operationBlurb returns the one-line description of an operation
func operationBlurb(op string) string {
	switch op {
	case "merge":
		return "Concatenate several PDFs into one document."
	case "split":
		return "Break a PDF into one file per page, zipped."
	case "reorder":
		return "Rebuild a PDF with its pages in a new order."
	case "compress":
		return "Shrink a PDF by re-encoding it at a chosen quality."
	case "watermark":
		return "Stamp text across selected pages."
	case "protect":
		return "Encrypt a PDF with a password."
	case "unlock":
		return "Remove a known password from a PDF."
	case "extract-images":
		return "Pull every embedded image into a ZIP archive."
	case "ocr":
		return "Recognize text in scans and images."
	case "convert":
		return "Convert between document and image formats."
	default:
		return ""
	}
}

// operationIcon returns the icon shown on an operation card
func operationIcon(op string) string {
	switch op {
	case "merge":
		return "🔗"
	case "split":
		return "✂️"
	case "reorder":
		return "🔀"
	case "compress":
		return "🗜️"
	case "watermark":
		return "💧"
	case "protect":
		return "🔒"
	case "unlock":
		return "🔓"
	case "extract-images":
		return "🖼️"
	case "ocr":
		return "🔍"
	case "convert":
		return "🔄"
	default:
		return "📄"
	}
}
