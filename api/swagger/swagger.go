package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Verification", "description": "Public authenticity checks"},
        {"name": "Documents", "description": "Bulletin and transcript issuance"},
        {"name": "Observability", "description": "Probes and counters"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Every dependency answered"},
                    "503": {"description": "At least one dependency failed"}
                }
            }
        },
        "/verify": {
            "get": {
                "tags": ["Verification"],
                "summary": "Check a verification code",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "code", "in": "query", "type": "string", "required": true, "description": "Long code or short code"},
                    {"name": "language", "in": "query", "type": "string", "enum": ["fr", "en"]},
                    {"name": "Accept-Language", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Verified", "schema": {"$ref": "#/definitions/VerifyResponse"}},
                    "404": {"description": "Unknown code", "schema": {"$ref": "#/definitions/VerifyResponse"}},
                    "410": {"description": "Expired", "schema": {"$ref": "#/definitions/VerifyResponse"}},
                    "500": {"description": "Integrity failure", "schema": {"$ref": "#/definitions/VerifyResponse"}}
                }
            }
        },
        "/api/v1/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List stored documents from the last index refresh",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Generate a bulletin or transcript",
                "description": "Returns the PDF inline when the client accepts application/pdf, otherwise JSON metadata with a signed download URL.",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json", "application/pdf"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateDocumentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid input or unknown option", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Empty history", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Code space exhausted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/documents/csv": {
            "post": {
                "tags": ["Documents"],
                "summary": "Export the aggregated history as CSV",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateDocumentRequest"}}
                ],
                "responses": {"200": {"description": "CSV file"}}
            }
        },
        "/api/v1/documents/download/{token}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download a stored document via signed token",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF file"},
                    "403": {"description": "Bad signature"},
                    "404": {"description": "File removed"},
                    "410": {"description": "Link expired"}
                }
            }
        },
        "/api/v1/documents/index/refresh": {
            "post": {
                "tags": ["Documents"],
                "summary": "Rescan the document storage directory",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/documents/batch": {
            "post": {
                "tags": ["Documents"],
                "summary": "Generate every bulletin of a class for one term",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchGenerateRequest"}}
                ],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/documents/batch/{id}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Class batch progress",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the submitter"},
                    "404": {"description": "Unknown batch"}
                }
            }
        },
        "/api/v1/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Aggregated service counters",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "Student": {
            "type": "object",
            "required": ["id", "matricule", "firstName", "lastName"],
            "properties": {
                "id": {"type": "string"},
                "matricule": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "birthDate": {"type": "string", "format": "date-time"},
                "birthPlace": {"type": "string"},
                "className": {"type": "string"},
                "photoUrl": {"type": "string"}
            }
        },
        "School": {
            "type": "object",
            "required": ["id", "name"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "Subject": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "coefficient": {"type": "number"},
                "grade": {"type": "number"},
                "maxScore": {"type": "number"},
                "teacherName": {"type": "string"},
                "appreciation": {"type": "string"}
            }
        },
        "Period": {
            "type": "object",
            "properties": {
                "academicYear": {"type": "string"},
                "className": {"type": "string"},
                "term": {"type": "string"},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/Subject"}},
                "decision": {"type": "string", "enum": ["PASSED", "REPEAT", "TRANSFERRED"]},
                "rank": {"type": "integer"},
                "totalStudents": {"type": "integer"},
                "absences": {"type": "integer"},
                "councilRemark": {"type": "string"}
            }
        },
        "RenderOptions": {
            "type": "object",
            "properties": {
                "language": {"type": "string", "enum": ["fr", "en"]},
                "pageFormat": {"type": "string", "enum": ["A4", "LETTER"]},
                "colorScheme": {"type": "string", "enum": ["OFFICIAL", "MODERN", "CLASSIC"]},
                "includePhoto": {"type": "boolean"},
                "includeCertifications": {"type": "boolean"},
                "includeStatistics": {"type": "boolean"},
                "officialSeal": {"type": "boolean"}
            }
        },
        "GenerateDocumentRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["BULLETIN", "TRANSCRIPT"]},
                "student": {"$ref": "#/definitions/Student"},
                "school": {"$ref": "#/definitions/School"},
                "periods": {"type": "array", "items": {"$ref": "#/definitions/Period"}},
                "options": {"$ref": "#/definitions/RenderOptions"}
            }
        },
        "BatchGenerateRequest": {
            "type": "object",
            "required": ["academicYear", "className", "term", "students"],
            "properties": {
                "school": {"$ref": "#/definitions/School"},
                "academicYear": {"type": "string"},
                "className": {"type": "string"},
                "term": {"type": "string"},
                "students": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "student": {"$ref": "#/definitions/Student"},
                            "subjects": {"type": "array", "items": {"$ref": "#/definitions/Subject"}},
                            "decision": {"type": "string"}
                        }
                    }
                },
                "options": {"$ref": "#/definitions/RenderOptions"}
            }
        },
        "VerifyResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "messageFr": {"type": "string"},
                "errorCode": {"type": "string", "enum": ["INVALID_CODE", "EXPIRED", "INTEGRITY_FAILURE"]},
                "data": {
                    "type": "object",
                    "properties": {
                        "student": {"type": "object"},
                        "school": {"type": "object"},
                        "academic": {"type": "object"},
                        "verification": {"type": "object"},
                        "periods": {"type": "array", "items": {"type": "object"}},
                        "labels": {"type": "object"}
                    }
                }
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
                "meta": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "SMA Records API",
	Description:      "Bulletins, transcripts and public authenticity checks.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
