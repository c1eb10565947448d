package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Talent Assessment API",
        "description": "Behavioural assessments for HR teams: tests with interpretation bands, evaluations and public questionnaire links.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Administrator login and token rotation"},
        {"name": "Tests", "description": "Questionnaires with versioned questions and bands"},
        {"name": "Collaborators", "description": "People who answer assessments"},
        {"name": "Evaluations", "description": "Campaigns that fan out into one link per test and collaborator"},
        {"name": "Public", "description": "Token-gated questionnaire links"},
        {"name": "Dashboard", "description": "Aggregated results"},
        {"name": "Reports", "description": "Asynchronous CSV and PDF exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate administrator",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate refresh token",
                "responses": {"200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/tests": {
            "get": {
                "tags": ["Tests"],
                "summary": "List tests",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Tests"],
                "summary": "Create test",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateTestRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid questions or bands", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/evaluations": {
            "post": {
                "tags": ["Evaluations"],
                "summary": "Create evaluation",
                "description": "Creates one pending response with its own access token per test and collaborator pair in a single transaction.",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateEvaluationRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown test or collaborator", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/evaluations/{id}/send": {
            "post": {
                "tags": ["Evaluations"],
                "summary": "Send a draft evaluation",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Sent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already sent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/assessments/{token}": {
            "get": {
                "tags": ["Public"],
                "summary": "Open an assessment link",
                "parameters": [{"in": "path", "name": "token", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Questionnaire", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "TOKEN_NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "ALREADY_COMPLETED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "TOKEN_EXPIRED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/assessments/{token}/submit": {
            "post": {
                "tags": ["Public"],
                "summary": "Submit answers",
                "parameters": [
                    {"in": "path", "name": "token", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SubmitAnswersRequest"}}
                ],
                "responses": {
                    "200": {"description": "Completed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_ANSWER or INCOMPLETE_ANSWERS", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "ALREADY_COMPLETED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "TOKEN_EXPIRED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "NO_MATCHING_BAND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Assessment dashboard",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "query", "name": "evaluationId", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Request a report export",
                "security": [{"BearerAuth": []}],
                "responses": {"202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report",
                "parameters": [{"in": "path", "name": "token", "required": true, "type": "string"}],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "Question": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "text": {"type": "string"},
                "order": {"type": "integer"}
            }
        },
        "Band": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "min": {"type": "number"},
                "max": {"type": "number"},
                "color": {"type": "string"}
            }
        },
        "CreateTestRequest": {
            "type": "object",
            "required": ["code", "name", "questions", "bands"],
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "questions": {"type": "array", "items": {"$ref": "#/definitions/Question"}},
                "bands": {"type": "array", "items": {"$ref": "#/definitions/Band"}}
            }
        },
        "CreateEvaluationRequest": {
            "type": "object",
            "required": ["name", "test_ids", "collaborator_ids"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "test_ids": {"type": "array", "items": {"type": "string"}},
                "collaborator_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Answer": {
            "type": "object",
            "properties": {
                "questionId": {"type": "string"},
                "value": {"type": "integer", "minimum": 1, "maximum": 5}
            }
        },
        "SubmitAnswersRequest": {
            "type": "object",
            "properties": {
                "answers": {"type": "array", "items": {"$ref": "#/definitions/Answer"}}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
