package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/admiralorbiter/DataDeckv2/internal/service"
	"github.com/admiralorbiter/DataDeckv2/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// PinCardsHandler exports a printable PIN-card sheet for a session roster.
type PinCardsHandler struct {
	Roster *service.RosterService
}

func NewPinCardsHandler(roster *service.RosterService) *PinCardsHandler {
	return &PinCardsHandler{Roster: roster}
}

// Export regenerates every PIN of the session's roster and writes one XLSX
// row per student: character name, username, plaintext PIN, session name,
// section and session code. PINs are only ever readable in this download;
// teachers should hand the cards out immediately.
func (h *PinCardsHandler) Export(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	session, students, pins, err := h.Roster.RegenerateRosterPins(id, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "session or roster not found")
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "generate pin cards failed")
		return
	}

	f := excelize.NewFile()
	sheetName := "PIN Cards"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create sheet failed")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Character Name", "Username", "PIN", "Session", "Section", "Session Code"}
	for i, head := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, head)
	}

	for idx, s := range students {
		row := idx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), s.CharacterName)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), s.Username)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), pins[s.ID])
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), session.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), session.Section)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), session.Code)
	}

	f.SetColWidth(sheetName, "A", "A", 22)
	f.SetColWidth(sheetName, "B", "B", 26)
	f.SetColWidth(sheetName, "C", "C", 8)
	f.SetColWidth(sheetName, "D", "D", 24)
	f.SetColWidth(sheetName, "E", "E", 9)
	f.SetColWidth(sheetName, "F", "F", 14)

	filename := fmt.Sprintf("pin_cards_%s_section_%d.xlsx",
		strings.ReplaceAll(session.Name, " ", "_"), session.Section)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}
