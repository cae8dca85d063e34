package ui

import (
	"fmt"
	"log"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"lighthouse/src/events"
	"lighthouse/src/skills"
)

const allLevels = "All levels"

// skillGraphView lists the skills file grouped by skill, with search and a
// level filter.
type skillGraphView struct {
	host   *Host
	groups []skills.GroupedSkill
	search *widget.Entry
	level  *widget.Select
	list   *widget.Accordion
	status *widget.Label
	root   fyne.CanvasObject
}

func newSkillGraphView(h *Host) *skillGraphView {
	v := &skillGraphView{host: h}
	v.search = widget.NewEntry()
	v.search.SetPlaceHolder("Search skills")
	v.search.OnChanged = func(string) { v.refresh() }
	v.level = widget.NewSelect(append([]string{allLevels}, skills.Levels...), func(string) { v.refresh() })
	v.level.SetSelectedIndex(0)
	v.list = widget.NewAccordion()
	v.status = widget.NewLabel("")

	v.groups = v.load()
	v.refresh()

	top := container.NewBorder(nil, nil, nil, v.level, v.search)
	v.root = container.NewBorder(top, v.status, nil, nil, container.NewVScroll(v.list))
	return v
}

func (v *skillGraphView) load() []skills.GroupedSkill {
	cmds := v.host.commands()
	if cmds == nil {
		return nil
	}
	data, err := cmds.GetSkillsData()
	if err != nil {
		v.status.SetText("Could not read skills: " + err.Error())
		return nil
	}
	f, err := skills.Parse([]byte(data), ".json")
	if err != nil {
		log.Printf("ui: skill graph: %v", err)
		v.status.SetText("Could not read skills: " + err.Error())
		return nil
	}
	return skills.GroupBySkill(f.Flatten())
}

func (v *skillGraphView) refresh() {
	if v.list == nil {
		return
	}
	level := v.level.Selected
	if level == allLevels {
		level = ""
	}
	shown := skills.Filter(v.groups, v.search.Text, level)

	v.list.Items = nil
	for _, g := range shown {
		v.list.Append(widget.NewAccordionItem(fmt.Sprintf("%s · %s", g.Name, g.Level), v.groupDetail(g)))
	}
	v.list.Refresh()
	if len(v.groups) == 0 {
		if v.status.Text == "" {
			v.status.SetText("No skills yet.")
		}
		return
	}
	v.status.SetText(fmt.Sprintf("%d of %d skills", len(shown), len(v.groups)))
}

func (v *skillGraphView) groupDetail(g skills.GroupedSkill) fyne.CanvasObject {
	box := container.NewVBox()
	for _, t := range g.Tasks {
		box.Add(widget.NewLabelWithStyle(t.Task, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
		if len(t.Prerequisites) > 0 {
			box.Add(widget.NewLabel("Requires: " + strings.Join(t.Prerequisites, ", ")))
		}
		for i, s := range t.Steps {
			text := fmt.Sprintf("%d. %s", i+1, s.Text)
			if s.Tag != "" {
				text += " [" + s.Tag + "]"
			}
			l := widget.NewLabel(text)
			l.Wrapping = fyne.TextWrapWord
			box.Add(l)
		}
		for _, c := range t.Commands {
			cmd := skills.CommandText(c)
			box.Add(container.NewBorder(nil, nil, nil,
				widget.NewButton("Copy", func() { v.copy(cmd) }),
				widget.NewLabelWithStyle(cmd, fyne.TextAlignLeading, fyne.TextStyle{Monospace: true})))
		}
		box.Add(widget.NewSeparator())
	}
	return box
}

func (v *skillGraphView) copy(text string) {
	cmds := v.host.commands()
	if cmds == nil {
		return
	}
	if err := cmds.CopyText(text); err != nil {
		v.status.SetText("Copy failed: " + err.Error())
		return
	}
	v.status.SetText("Copied.")
}

func (v *skillGraphView) content() fyne.CanvasObject { return v.root }

func (v *skillGraphView) handle(events.Event) {}
