package handlers

import (
	"html/template"
	"net/http"
)

const swaggerAssets = "https://unpkg.com/swagger-ui-dist@5.10.0"

var swaggerTemplate = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" type="text/css" href="{{.Assets}}/swagger-ui.css">
    <style>
        html { box-sizing: border-box; overflow-y: scroll; }
        body { margin: 0; padding: 0; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="{{.Assets}}/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: {{.SpecURL}},
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [SwaggerUIBundle.presets.apis]
            });
        };
    </script>
</body>
</html>`))

// SwaggerUI serves the API documentation page for /api/docs/openapi.json
func SwaggerUI(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Title   string
		Assets  string
		SpecURL string
	}{
		Title:   "Bike Sharing Dashboard API Documentation",
		Assets:  swaggerAssets,
		SpecURL: "/api/docs/openapi.json",
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := swaggerTemplate.Execute(w, data); err != nil {
		http.Error(w, "failed to render documentation", http.StatusInternalServerError)
	}
}
