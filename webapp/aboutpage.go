package webapp

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// AboutInfo represents the about information from the API
type AboutInfo struct {
	Version      string          `json:"version"`
	Renderer     string          `json:"renderer"`
	DatabaseType string          `json:"databaseType"`
	DatabaseName string          `json:"databaseName"`
	UploadPath   string          `json:"uploadPath"`
	OutputPath   string          `json:"outputPath"`
	MaxUploadMB  int             `json:"maxUploadMB"`
	Tools        map[string]bool `json:"tools"`
}

// AboutPage displays information about the application
type AboutPage struct {
	app.Compo
	aboutInfo AboutInfo
	loading   bool
	error     string
}

// OnMount is called when the component is mounted
func (a *AboutPage) OnMount(ctx app.Context) {
	a.loading = true
	a.fetchAboutInfo(ctx)
}

// fetchAboutInfo fetches the about information from the API
func (a *AboutPage) fetchAboutInfo(ctx app.Context) {
	ctx.Async(func() {
		res := app.Window().Call("fetch", BuildAPIURL("/api/about"))

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

				ctx.Dispatch(func(ctx app.Context) {
					if err := json.Unmarshal([]byte(jsonStr), &a.aboutInfo); err != nil {
						a.error = fmt.Sprintf("Failed to parse response: %v", err)
					}
					a.loading = false
				})

				return nil
			}))

			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				a.error = "Network error"
				a.loading = false
			})
			return nil
		}))
	})
}

// Render renders the about page
func (a *AboutPage) Render() app.UI {
	if a.loading {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About goPDFTools"),
			app.Div().Class("loading").Body(app.Text("Loading...")),
		)
	}

	if a.error != "" {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About goPDFTools"),
			app.Div().Class("error").Body(app.Text("Error: "+a.error)),
		)
	}

	return app.Div().Class("about-page").Body(
		app.H2().Text("About goPDFTools"),
		app.Div().Class("about-content").Body(
			app.Div().Class("about-section").Body(
				app.H3().Text("Application Information"),
				app.Div().Class("info-grid").Body(
					a.renderInfoItem("Version", a.aboutInfo.Version),
					a.renderInfoItem("PDF Renderer", a.getRendererDisplay()),
					a.renderInfoItem("Database", a.getDatabaseDisplay()),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Scratch Storage"),
				app.Div().Class("config-details").Body(
					app.P().Body(
						app.Strong().Text("Upload Directory: "),
						app.Text(a.aboutInfo.UploadPath),
					),
					app.P().Body(
						app.Strong().Text("Output Directory: "),
						app.Text(a.aboutInfo.OutputPath),
					),
					app.P().Body(
						app.Strong().Text("Upload Limit: "),
						app.Text(fmt.Sprintf("%d MB", a.aboutInfo.MaxUploadMB)),
					),
					app.P().Body(
						app.Strong().Text("Database Name: "),
						app.Text(a.aboutInfo.DatabaseName),
					),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("External Tools"),
				a.renderToolList(),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("About goPDFTools"),
				app.P().Text("goPDFTools is a document transformation toolbox built with Go and WebAssembly."),
				app.P().Text("It merges, splits, reorders, compresses, watermarks, protects and converts documents, extracts their images, and recognizes text in scans."),
			),
		),
	)
}

// renderInfoItem creates an info item display
func (a *AboutPage) renderInfoItem(label, value string) app.UI {
	return app.Div().Class("info-item").Body(
		app.Div().Class("info-label").Body(app.Text(label)),
		app.Div().Class("info-value").Body(app.Text(value)),
	)
}

// renderToolList renders every probed tool and whether it resolved
func (a *AboutPage) renderToolList() app.UI {
	names := a.sortedToolNames()
	return app.Div().Class("config-details").Body(
		app.Range(names).Slice(func(i int) app.UI {
			name := names[i]
			return app.P().Body(
				app.Strong().Text(name+": "),
				app.Text(toolStatus(a.aboutInfo.Tools[name])),
			)
		}),
	)
}

// sortedToolNames returns the probed tool names in a stable order
func (a *AboutPage) sortedToolNames() []string {
	names := make([]string, 0, len(a.aboutInfo.Tools))
	for name := range a.aboutInfo.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// getRendererDisplay returns a user-friendly renderer name
func (a *AboutPage) getRendererDisplay() string {
	switch a.aboutInfo.Renderer {
	case "pdfium":
		return "PDFium"
	case "fitz":
		return "MuPDF (fitz)"
	default:
		return a.aboutInfo.Renderer
	}
}

// getDatabaseDisplay returns a user-friendly database display name
func (a *AboutPage) getDatabaseDisplay() string {
	switch a.aboutInfo.DatabaseType {
	case "sqlite":
		return "SQLite"
	default:
		return a.aboutInfo.DatabaseType
	}
}

// toolStatus renders tool availability as a user-friendly string
func toolStatus(available bool) string {
	if available {
		return "Available"
	}
	return "Missing"
}
