package web

import "embed"

// StaticFS holds the embedded static assets (app.js, app.css).
//
//go:embed static/*
var StaticFS embed.FS
