package main

//go:generate swag init -g cmd/api/main.go -o docs

// @title           SageTrader Journal API
// @version         0.1.0
// @description     Trading journal: instruments, strategies, trades, plans, studies and chart images.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
