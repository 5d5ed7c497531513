package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/snapgather/snapgather/internal/catalog"
)

func catalogStyleFunc(row, col int) lipgloss.Style {
	switch {
	case row == table.HeaderRow:
		return TableHeaderStyle
	case row%2 == 0:
		return TableRowStyle
	default:
		return TableRowAltStyle
	}
}

// CatalogTableView renders the sticker or emoji catalog as a table.
func CatalogTableView(title string, items []catalog.Item) string {
	if len(items) == 0 {
		return MutedStyle.Render("No " + title)
	}

	var rows [][]string
	for i, item := range items {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			truncateString(item.Name, 30),
			truncateString(item.Image, 60),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("#", "Name", "Image").
		Rows(rows...).
		StyleFunc(catalogStyleFunc)

	return tbl.Render()
}

// RenderCatalogTable outputs the catalog table directly to stdout
func RenderCatalogTable(title string, items []catalog.Item) {
	fmt.Println(CatalogTableView(title, items))
}

// RoomInfo is the share box shown after hosting a room.
type RoomInfo struct {
	RoomID   string
	RoomLink string
}

func NewRoomInfo(roomID, roomLink string) *RoomInfo {
	return &RoomInfo{
		RoomID:   roomID,
		RoomLink: roomLink,
	}
}

func (r *RoomInfo) View() string {
	content := fmt.Sprintf("%s Room Created!\n\n%s Room ID:    %s\n%s Room Link:  %s",
		IconSuccess,
		IconCopy, BoldStyle.Foreground(Primary).Render(r.RoomID),
		IconWeb, MutedStyle.Render(r.RoomLink),
	)

	return SuccessBoxStyle.Render(content)
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
