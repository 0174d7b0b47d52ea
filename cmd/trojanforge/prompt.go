package main

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

// promptChoice is the result of the interactive two-step form: the
// selected trigger clique size and payload kind, replacing the
// original tool's blocking std::cin prompts (spec.md §6).
type promptChoice struct {
	triggerSize int
	payloadKind string
	cancelled   bool
}

var triggerSizeOptions = []int{2, 3, 4, 6, 8, 12}

var titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

// listItem adapts a plain label to bubbles/list's list.Item interface.
type listItem string

func (i listItem) FilterValue() string { return string(i) }
func (i listItem) Title() string       { return string(i) }
func (i listItem) Description() string { return "" }

// choiceModel drives a bubbles/list.Model through two sequential
// selections: trigger size, then payload kind.
type choiceModel struct {
	step    int // 0 = trigger size, 1 = payload kind
	circuit string
	sizeList    list.Model
	payloadList list.Model
	choice  promptChoice
	done    bool
}

func newChoiceModel(circuit string) choiceModel {
	sizeItems := make([]list.Item, len(triggerSizeOptions))
	for i, size := range triggerSizeOptions {
		sizeItems[i] = listItem(strconv.Itoa(size))
	}
	payloadItems := make([]list.Item, len(trojanKindLabels))
	for i, label := range trojanKindLabels {
		payloadItems[i] = listItem(label)
	}

	delegate := list.NewDefaultDelegate()
	sizeList := list.New(sizeItems, delegate, 40, 14)
	sizeList.Title = circuit + ": select trigger clique size"

	payloadList := list.New(payloadItems, delegate, 40, 14)
	payloadList.Title = circuit + ": select payload kind"

	return choiceModel{circuit: circuit, sizeList: sizeList, payloadList: payloadList}
}

func (m choiceModel) Init() tea.Cmd { return nil }

func (m choiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c", "esc":
			m.choice.cancelled = true
			m.done = true
			return m, tea.Quit
		case "enter":
			return m.advance()
		}
	}

	var cmd tea.Cmd
	if m.step == 0 {
		m.sizeList, cmd = m.sizeList.Update(msg)
	} else {
		m.payloadList, cmd = m.payloadList.Update(msg)
	}
	return m, cmd
}

func (m choiceModel) advance() (tea.Model, tea.Cmd) {
	if m.step == 0 {
		item, ok := m.sizeList.SelectedItem().(listItem)
		if !ok {
			return m, nil
		}
		size, err := strconv.Atoi(string(item))
		if err != nil {
			return m, nil
		}
		m.choice.triggerSize = size
		m.step = 1
		return m, nil
	}

	item, ok := m.payloadList.SelectedItem().(listItem)
	if !ok {
		return m, nil
	}
	m.choice.payloadKind = string(item)
	m.done = true
	return m, tea.Quit
}

func (m choiceModel) View() string {
	if m.done {
		return ""
	}
	if m.step == 0 {
		return m.sizeList.View()
	}
	return titleStyle.Render(fmt.Sprintf("trigger size %d chosen", m.choice.triggerSize)) + "\n" + m.payloadList.View()
}

// promptForChoice runs the interactive trigger-size/payload-kind form
// and returns the selection, or cancelled=true if the user backed out.
func promptForChoice(circuit string) (promptChoice, error) {
	model := newChoiceModel(circuit)
	program := tea.NewProgram(model)
	final, err := program.Run()
	if err != nil {
		return promptChoice{}, err
	}
	return final.(choiceModel).choice, nil
}
