// Package docs регистрирует описание API для Swagger UI на /docs.
// Описание повторяет аннотации обработчиков в internal/http/handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/payment/instructions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Адрес кошелька, сумма и ссылка на оплату подписки",
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Реквизиты оплаты",
                "responses": {
                    "200": {"description": "Реквизиты", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/claims": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Проверяет перевод USDT в сети TRON и продлевает подписку пользователя",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Claims"],
                "summary": "Отправить хэш транзакции",
                "parameters": [
                    {
                        "description": "Хэш транзакции",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/submit.Request"}
                    }
                ],
                "responses": {
                    "200": {"description": "Платеж зачтен", "schema": {"$ref": "#/definitions/submit.Result"}},
                    "400": {"description": "Некорректный JSON", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Заявка отклонена", "schema": {"$ref": "#/definitions/submit.Result"}},
                    "429": {"description": "Слишком много заявок", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Ошибка хранилища", "schema": {"$ref": "#/definitions/response.Response"}},
                    "503": {"description": "Узел сети недоступен, повторите позже", "schema": {"$ref": "#/definitions/submit.Result"}}
                }
            }
        },
        "/content": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Подписчикам отдает всю ленту, остальным превью и приглашение оплатить",
                "produces": ["application/json"],
                "tags": ["Content"],
                "summary": "Лента аирдропов",
                "responses": {
                    "200": {"description": "Лента", "schema": {"$ref": "#/definitions/models.DisplayResult"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"},
                "data": {}
            }
        },
        "submit.Request": {
            "type": "object",
            "required": ["tx_hash"],
            "properties": {
                "tx_hash": {"type": "string", "maxLength": 256}
            }
        },
        "submit.Result": {
            "type": "object",
            "properties": {
                "result": {"type": "string", "enum": ["accepted", "rejected", "deferred"]},
                "end_date": {"type": "string", "format": "date"},
                "reason": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "models.Item": {
            "type": "object",
            "properties": {
                "source": {"type": "string"},
                "title": {"type": "string"},
                "placeholder": {"type": "boolean"}
            }
        },
        "models.DisplayResult": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "enum": ["full", "preview"]},
                "items": {"type": "array", "items": {"$ref": "#/definitions/models.Item"}},
                "upsell": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo общие сведения об API.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Airdrop Paywall API",
	Description:      "Платный доступ к ленте аирдропов с оплатой USDT в сети TRON",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
