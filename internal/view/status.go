// Package view holds the gomponents for the host's status page.
package view

import (
	"fmt"
	"time"

	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	. "maragu.dev/gomponents/html"

	"github.com/nfrund/chaosarena/internal/match"
)

// PanelPath is polled by the status page.
const PanelPath = "/panel"

const pollEvery = "every 1s"

// StatusPage is the full page: controls, flashes and the live panel.
func StatusPage(s match.State, flashes Flashes) g.Node {
	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				TitleEl(g.Text("Chaos Arena")),
				Script(Src("https://unpkg.com/htmx.org@2.0.4")),
			),
			Body(
				H1(g.Text("Chaos Arena")),
				flashList(flashes),
				controls(),
				Panel(s),
			),
		),
	)
}

func flashList(f Flashes) g.Node {
	if f.Empty() {
		return nil
	}
	return Div(ID("flashes"),
		g.Map(f.Success, func(m string) g.Node { return P(Class("flash success"), g.Text(m)) }),
		g.Map(f.Error, func(m string) g.Node { return P(Class("flash error"), g.Text(m)) }),
	)
}

func controls() g.Node {
	return Div(ID("controls"),
		Form(Method("post"), Action("/control/start"), Button(Type("submit"), g.Text("Start match"))),
		Form(Method("post"), Action("/control/reset"), Button(Type("submit"), g.Text("Reset"))),
	)
}

// Panel is the self-refreshing fragment with the match numbers, the room and
// the event log.
func Panel(s match.State) g.Node {
	return Div(
		ID("panel"),
		hx.Get(PanelPath),
		hx.Trigger(pollEvery),
		hx.Swap("outerHTML"),
		Dl(
			stat("Status", string(s.Status)),
			stat("Score", fmt.Sprint(s.Score)),
			stat("HP", fmt.Sprintf("%d/%d (%d%%)", s.Avatar.HP, s.Avatar.MaxHP, s.Avatar.HPPercent())),
			stat("Time", (time.Duration(s.TimeElapsed) * time.Second).String()),
			stat("Hostiles", fmt.Sprint(len(s.Hostiles))),
			stat("Difficulty", fmt.Sprintf("x%.2f", s.DifficultyMultiplier)),
		),
		H2(g.Textf("Viewers (%d)", len(s.Viewers))),
		Table(ID("viewers"),
			THead(Tr(Th(g.Text("Name")), Th(g.Text("Balance")), Th(g.Text("Bet")))),
			TBody(g.Map(s.Viewers, viewerRow)),
		),
		H2(g.Text("Events")),
		Ul(ID("events"), g.Map(s.Events, eventItem)),
	)
}

func stat(label, value string) g.Node {
	return g.Group([]g.Node{Dt(g.Text(label)), Dd(g.Text(value))})
}

func viewerRow(v match.Viewer) g.Node {
	bet := "-"
	if v.HasBet() {
		bet = fmt.Sprintf("%s $%d", v.BetOn, v.BetAmount)
	}
	return Tr(Td(g.Text(v.Name)), Td(g.Textf("$%d", v.Balance)), Td(g.Text(bet)))
}

func eventItem(e match.GameEvent) g.Node {
	return Li(Class("event "+categoryClass(e.Type)), g.Text(e.Text))
}

func categoryClass(c match.Category) string {
	switch c {
	case match.CategoryDanger:
		return "danger"
	case match.CategoryBuff:
		return "buff"
	case match.CategoryCommentary:
		return "commentary"
	}
	return "info"
}
