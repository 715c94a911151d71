package cache

import (
	"context"
	"strings"
)

// View names. Writes invalidate views; cached reads are filed under one.
const (
	ViewProjects  = "projects"
	ViewDashboard = "dashboard"
	ViewTeam      = "team"
)

const viewSeparator = "#"

func ProjectView(projectID string) string {
	return "project:" + projectID
}

func SettingsView(userID string) string {
	return "settings:" + userID
}

// ViewKey names a cached entry inside a view.
func ViewKey(view, name string) string {
	return view + viewSeparator + name
}

func viewOf(key string) string {
	view, _, _ := strings.Cut(key, viewSeparator)
	return view
}

type Invalidator interface {
	Invalidate(ctx context.Context, views ...string)
}

// NopInvalidator is used when no view cache is configured.
type NopInvalidator struct{}

func (NopInvalidator) Invalidate(context.Context, ...string) {}
