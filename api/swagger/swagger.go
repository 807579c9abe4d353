package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Education Center Scheduler API",
        "description": "Class scheduling and teacher/room availability engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Scheduler",
            "description": "Time slots, busy intervals and conflict verdicts"
        },
        {
            "name": "Slot Grid",
            "description": "Server-side weekly selection grid"
        },
        {
            "name": "Classes",
            "description": "Class creation and session calendar"
        }
    ],
    "paths": {
        "/time-slots": {
            "get": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "List the time slot catalog",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Catalog unavailable",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/teachers/{id}/busy": {
            "get": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "List busy intervals of a teacher",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Busy fetch failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Teacher ID"
                    },
                    {
                        "in": "query",
                        "name": "from",
                        "type": "string",
                        "required": true,
                        "description": "First day (yyyy-MM-dd)"
                    },
                    {
                        "in": "query",
                        "name": "to",
                        "type": "string",
                        "required": true,
                        "description": "Last day (yyyy-MM-dd)"
                    }
                ]
            }
        },
        "/rooms/{id}/busy": {
            "get": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "List busy intervals of a room",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Busy fetch failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Room ID"
                    },
                    {
                        "in": "query",
                        "name": "from",
                        "type": "string",
                        "required": true,
                        "description": "First day (yyyy-MM-dd)"
                    },
                    {
                        "in": "query",
                        "name": "to",
                        "type": "string",
                        "required": true,
                        "description": "Last day (yyyy-MM-dd)"
                    }
                ]
            }
        },
        "/scheduler/conflicts": {
            "post": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Evaluate every weekly slot for a teacher, room and semester",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Busy fetch failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ConflictGridRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/normalize": {
            "post": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Reduce concrete selections to a weekly recurrence set",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/NormalizeRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/grids": {
            "post": {
                "tags": [
                    "Slot Grid"
                ],
                "summary": "Open a slot grid session",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GridDependenciesRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/grids/{id}": {
            "get": {
                "tags": [
                    "Slot Grid"
                ],
                "summary": "Render the grid for the displayed week",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Grid session not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Grid ID"
                    },
                    {
                        "in": "query",
                        "name": "week",
                        "type": "string",
                        "required": false,
                        "description": "Any day of the week to display (yyyy-MM-dd)"
                    },
                    {
                        "in": "query",
                        "name": "wait",
                        "type": "boolean",
                        "required": false,
                        "description": "Wait for loading to finish"
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Slot Grid"
                ],
                "summary": "Discard a grid session",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Grid ID"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/scheduler/grids/{id}/dependencies": {
            "put": {
                "tags": [
                    "Slot Grid"
                ],
                "summary": "Change teacher, room or semester",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Grid ID"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GridDependenciesRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/grids/{id}/toggle": {
            "post": {
                "tags": [
                    "Slot Grid"
                ],
                "summary": "Toggle one concrete cell",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Grid ID"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ToggleRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/grids/{id}/reset": {
            "post": {
                "tags": [
                    "Slot Grid"
                ],
                "summary": "Clear the selection",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Grid ID"
                    }
                ]
            }
        },
        "/scheduler/grids/{id}/normalized": {
            "get": {
                "tags": [
                    "Slot Grid"
                ],
                "summary": "Preview the recurrence set of the current selection",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Grid ID"
                    }
                ]
            }
        },
        "/scheduler/grids/{id}/submit": {
            "post": {
                "tags": [
                    "Slot Grid"
                ],
                "summary": "Create a class from the selection",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Empty selection",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Grid disabled or schedule conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Grid ID"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SubmitGridRequest"
                        }
                    }
                ]
            }
        },
        "/classes": {
            "post": {
                "tags": [
                    "Classes"
                ],
                "summary": "Create a class with its weekly schedule",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Schedule conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Busy fetch failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateClassRequest"
                        }
                    }
                ]
            }
        },
        "/classes/{id}/sessions": {
            "get": {
                "tags": [
                    "Classes"
                ],
                "summary": "List every session of a class",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Class not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Class ID"
                    }
                ]
            }
        }
    },
    "definitions": {
        "WeeklyRecurrencePattern": {
            "type": "object",
            "properties": {
                "dayOfWeek": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 7
                },
                "timeSlotId": {
                    "type": "integer"
                }
            }
        },
        "SelectedOccurrence": {
            "type": "object",
            "properties": {
                "isoStart": {
                    "type": "string"
                },
                "isoEnd": {
                    "type": "string"
                }
            }
        },
        "ConflictGridRequest": {
            "type": "object",
            "properties": {
                "teacherId": {
                    "type": "string"
                },
                "roomId": {
                    "type": "string"
                },
                "semesterId": {
                    "type": "string"
                }
            }
        },
        "GridDependenciesRequest": {
            "type": "object",
            "properties": {
                "teacherId": {
                    "type": "string"
                },
                "roomId": {
                    "type": "string"
                },
                "semesterId": {
                    "type": "string"
                }
            }
        },
        "ToggleRequest": {
            "type": "object",
            "properties": {
                "isoStart": {
                    "type": "string"
                },
                "isoEnd": {
                    "type": "string"
                }
            }
        },
        "NormalizeRequest": {
            "type": "object",
            "properties": {
                "selection": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/SelectedOccurrence"
                    }
                }
            }
        },
        "SubmitGridRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "subjectId": {
                    "type": "string"
                }
            }
        },
        "CreateClassRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "subjectId": {
                    "type": "string"
                },
                "teacherId": {
                    "type": "string"
                },
                "roomId": {
                    "type": "string"
                },
                "semesterId": {
                    "type": "string"
                },
                "maxStudents": {
                    "type": "integer"
                },
                "schedule": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/WeeklyRecurrencePattern"
                    }
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {
                    "type": "object"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                },
                "request_id": {
                    "type": "string"
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
