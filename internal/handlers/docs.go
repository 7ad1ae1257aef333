package handlers

import (
	"encoding/json"
	"net/http"

	"bikeshare-dashboard/internal/charts"
	"bikeshare-dashboard/internal/services"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the dashboard API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	doc := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Bike Sharing Dashboard API",
			"description": "Filtered aggregations, headline metrics, charts and workbook export over the hourly and daily bike rental tables",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/filters": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Selectable years and seasons",
					"description": "Distinct years and season labels present in the loaded tables, plus the default selection",
					"responses": map[string]interface{}{
						"200": jsonResponse("Filter options", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"options": ref("Selection"),
								"default": ref("Selection"),
							},
						}),
						"503": errorResponse("Data source unavailable"),
					},
				},
			},
			"/api/dashboard": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Full dashboard",
					"description": "Every view, the metrics and the formatted KPIs for one selection",
					"parameters":  selectionParams(),
					"responses": map[string]interface{}{
						"200": jsonResponse("Dashboard", map[string]interface{}{"type": "object"}),
						"400": errorResponse("Unknown or malformed year or season"),
						"503": errorResponse("Data source unavailable"),
					},
				},
			},
			"/api/views/{view}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Single view",
					"parameters": append(selectionParams(), map[string]interface{}{
						"name":     "view",
						"in":       "path",
						"required": true,
						"schema":   map[string]interface{}{"type": "string", "enum": services.Views},
					}),
					"responses": map[string]interface{}{
						"200": jsonResponse("View rows or matrix", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"view":      map[string]string{"type": "string"},
								"selection": ref("Selection"),
								"data":      map[string]interface{}{},
							},
						}),
						"400": errorResponse("Unknown or malformed year or season"),
						"404": errorResponse("Unknown view"),
						"503": errorResponse("Data source unavailable"),
					},
				},
			},
			"/api/metrics/summary": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Headline metrics",
					"parameters": selectionParams(),
					"responses": map[string]interface{}{
						"200": jsonResponse("Metrics and KPIs", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"selection": ref("Selection"),
								"metrics":   ref("Metrics"),
								"kpis":      map[string]string{"type": "object"},
							},
						}),
						"400": errorResponse("Unknown or malformed year or season"),
						"503": errorResponse("Data source unavailable"),
					},
				},
			},
			"/api/charts/{chart}.png": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Chart image",
					"parameters": append(selectionParams(), map[string]interface{}{
						"name":     "chart",
						"in":       "path",
						"required": true,
						"schema":   map[string]interface{}{"type": "string", "enum": charts.Charts},
					}),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "PNG image",
							"content": map[string]interface{}{
								"image/png": map[string]interface{}{
									"schema": map[string]string{"type": "string", "format": "binary"},
								},
							},
						},
						"404": errorResponse("Unknown chart"),
						"503": errorResponse("Data source unavailable"),
					},
				},
			},
			"/api/export.xlsx": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Workbook export",
					"parameters": selectionParams(),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "One sheet per view plus a KPI sheet",
							"content": map[string]interface{}{
								"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": map[string]interface{}{
									"schema": map[string]string{"type": "string", "format": "binary"},
								},
							},
						},
						"503": errorResponse("Data source unavailable"),
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Reports degraded when the data source failed to load",
					"responses": map[string]interface{}{
						"200": jsonResponse("Health status", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"status":    map[string]interface{}{"type": "string", "enum": []string{"healthy", "degraded"}},
								"timestamp": map[string]string{"type": "string", "format": "date-time"},
								"message":   map[string]string{"type": "string"},
							},
						}),
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"Selection": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"years":   map[string]interface{}{"type": "array", "items": map[string]string{"type": "integer"}},
						"seasons": map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
					},
				},
				"Metrics": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"total_rentals":     map[string]string{"type": "integer"},
						"casual_percentage": map[string]interface{}{"type": "number", "nullable": true},
						"peak_month":        map[string]interface{}{"type": "integer", "nullable": true, "minimum": 1, "maximum": 12},
						"peak_hour":         map[string]interface{}{"type": "integer", "nullable": true, "minimum": 0, "maximum": 23},
					},
				},
				"Error": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"error":   map[string]string{"type": "string"},
						"message": map[string]string{"type": "string"},
						"code":    map[string]string{"type": "integer"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

func selectionParams() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"name":        ParamYears,
			"in":          "query",
			"description": "Comma separated years. Absent selects every year, empty selects none.",
			"required":    false,
			"schema":      map[string]string{"type": "string", "example": "2011,2012"},
		},
		{
			"name":        ParamSeasons,
			"in":          "query",
			"description": "Comma separated season labels. Absent selects every season, empty selects none.",
			"required":    false,
			"schema":      map[string]string{"type": "string", "example": "Spring,Fall"},
		},
	}
}

func ref(schema string) map[string]string {
	return map[string]string{"$ref": "#/components/schemas/" + schema}
}

func jsonResponse(description string, schema interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		},
	}
}

func errorResponse(description string) map[string]interface{} {
	return jsonResponse(description, ref("Error"))
}
