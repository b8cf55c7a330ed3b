package main

import (
	"testing"

	"github.com/LongAiden/news-classification/internal/cli"
	"github.com/LongAiden/news-classification/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		if version.GetVersion() == "" {
			t.Error("expected version to be non-empty")
		}
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.GetVersion())
		if root == nil {
			t.Fatal("expected root command to be non-nil")
		}
		if root.Use == "" {
			t.Error("expected root command to have a use string")
		}
	})

	t.Run("run function exists", func(t *testing.T) {
		_ = run
	})
}
