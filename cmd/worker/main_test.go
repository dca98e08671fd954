package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/salesboard/salesboard/internal/app"
	_ "github.com/salesboard/salesboard/internal/testing/guard"
)

func TestMainReturnsInTestMode(t *testing.T) {
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
	assert.NotPanics(t, main)
}
