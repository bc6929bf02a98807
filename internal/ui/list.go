package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ivx/internal/formatter"
	"github.com/desertthunder/ivx/internal/models"
)

var (
	_ list.Item = projectItem{}
	_ list.Item = videoItem{}
)

// projectItem wraps [models.Project] to implement [list.Item].
type projectItem struct {
	project models.Project
}

func (i projectItem) FilterValue() string { return i.project.Title }
func (i projectItem) Title() string       { return i.project.Title }
func (i projectItem) Description() string {
	desc := fmt.Sprintf("#%d", i.project.ID)
	if i.project.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.project.Description)
	}
	return desc
}

// videoItem wraps [models.VideoFile] to implement [list.Item].
type videoItem struct {
	video models.VideoFile
}

func (i videoItem) FilterValue() string { return i.video.Filename }
func (i videoItem) Title() string       { return i.video.Filename }
func (i videoItem) Description() string {
	return fmt.Sprintf("%s • %s", formatter.FormatDuration(i.video.Duration), formatter.FormatSize(i.video.FileSize))
}
