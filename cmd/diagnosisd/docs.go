package main

// General API documentation for swaggo. Run `swag init -g cmd/diagnosisd/docs.go` to generate docs.
//
// @title           diagnosisd API
// @version         1.0
// @description     HTTP API extracting diagnosis lists from clinical notes via an external inference engine.
//
// @contact.name   diagnosisd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
