// Package docs provides the OpenAPI documentation for the pdfextract API.
//
// pdfextract API
//
//	@title			pdfextract API
//	@version		1.0
//	@description	Turn PDF pages into structured text (JSON, XML, Markdown or HTML) with a vision model.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/pdfextract
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/pdfextract/serve.go -o . --parseInternal
