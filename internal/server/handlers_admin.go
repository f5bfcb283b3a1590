package server

import (
	"net/http"
	"strconv"

	"gameroom-kiosk/internal/db"
	"gameroom-kiosk/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var playerColumns = []web.Column{
	{Key: "id", Label: "ID", Sortable: true},
	{Key: "first_name", Label: "First name", Sortable: true},
	{Key: "last_name", Label: "Last name", Sortable: true},
	{Key: "email", Label: "Email", Sortable: true},
	{Key: "phone", Label: "Phone", Sortable: true},
	{Key: "signature", Label: "Signature"},
	{Key: "waiver", Label: "Waiver"},
	{Key: "created", Label: "Created", Sortable: true},
}

var wristbandColumns = []web.Column{
	{Key: "id", Label: "ID", Sortable: true},
	{Key: "code", Label: "Wristband", Sortable: true},
	{Key: "src", Label: "Source", Sortable: true},
	{Key: "status", Label: "Status", Sortable: true},
	{Key: "pos_booking", Label: "Booking", Sortable: true},
	{Key: "player", Label: "Player", Sortable: true},
	{Key: "gameroom", Label: "Gameroom type", Sortable: true},
	{Key: "date", Label: "Issued", Sortable: true},
	{Key: "start", Label: "Start", Sortable: true},
	{Key: "end", Label: "End", Sortable: true},
	{Key: "updated", Label: "Updated", Sortable: true},
}

func adminNav(active string) []web.NavLink {
	return []web.NavLink{
		{Label: "Wristbands", Href: "/admin/wristbands", Active: active == "wristbands"},
		{Label: "Players", Href: "/admin/players", Active: active == "players"},
	}
}

func (s *Server) adminPageSize() int {
	if s.cfg.AdminPageSize > 0 {
		return s.cfg.AdminPageSize
	}
	return web.DefaultPageSizes[0]
}

func (s *Server) handleAdminPlayers(c *gin.Context) {
	query, sort := tableParams(c, s.adminPageSize())
	page, err := db.ListPlayers(c.Request.Context(), s.db, query)
	if err != nil {
		s.renderAdminError(c, err)
		return
	}
	rows := make([][]web.Cell, 0, len(page.Rows))
	for _, player := range page.Rows {
		rows = append(rows, []web.Cell{
			web.Plain(strconv.FormatUint(uint64(player.PlayerID), 10)),
			web.Plain(player.FirstName),
			web.Plain(player.LastName),
			web.Plain(player.Email),
			web.Plain(player.Phone),
			web.Image(player.Signature),
			web.Markup(player.WaiverHTML),
			web.Plain(web.FormatTime(&player.CreatedAt)),
		})
	}
	table := web.Table{
		Title:      "Players",
		Columns:    playerColumns,
		Rows:       rows,
		Sort:       sort,
		Pagination: paginationFor("/admin/players", page),
		PageSizes:  web.DefaultPageSizes,
	}
	render(c, http.StatusOK, web.AdminTablePage(table, adminNav("players")))
}

func (s *Server) handleAdminWristbands(c *gin.Context) {
	query, sort := tableParams(c, s.adminPageSize())
	page, err := db.ListWristbandTrans(c.Request.Context(), s.db, query)
	if err != nil {
		s.renderAdminError(c, err)
		return
	}
	rows := make([][]web.Cell, 0, len(page.Rows))
	for _, tran := range page.Rows {
		booking := "-"
		if tran.PosBookingID != nil {
			booking = strconv.Itoa(*tran.PosBookingID)
		}
		player := "-"
		if tran.Player != nil {
			player = tran.Player.FullName()
		}
		rows = append(rows, []web.Cell{
			web.Plain(strconv.FormatUint(uint64(tran.WristbandTranID), 10)),
			web.Plain(tran.WristbandCode),
			web.Plain(tran.Src),
			web.Plain(tran.WristbandStatusFlag),
			web.Plain(booking),
			web.Plain(player),
			web.Plain(strconv.Itoa(tran.GameroomTypeID)),
			web.Plain(web.FormatTime(&tran.WristbandTranDate)),
			web.Plain(web.FormatTime(tran.PlayerStartDate)),
			web.Plain(web.FormatTime(tran.PlayerEndDate)),
			web.Plain(web.FormatTime(&tran.UpdateDateTime)),
		})
	}
	table := web.Table{
		Title:      "Wristband transactions",
		Columns:    wristbandColumns,
		Rows:       rows,
		Sort:       sort,
		Pagination: paginationFor("/admin/wristbands", page),
		PageSizes:  web.DefaultPageSizes,
	}
	render(c, http.StatusOK, web.AdminTablePage(table, adminNav("wristbands")))
}

func (s *Server) renderAdminError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := http.StatusInternalServerError
	message := "Failed to load records."
	if errorStatus(err) == http.StatusServiceUnavailable {
		status = http.StatusServiceUnavailable
		message = "Database not configured."
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("admin query failed")
	}
	render(c, status, web.ErrorPage("Admin", message))
}
