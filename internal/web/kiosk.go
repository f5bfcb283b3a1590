package web

import (
	"context"
	"encoding/json"
	"io"

	"gameroom-kiosk/internal/kiosk"

	"github.com/a-h/templ"
)

// KioskPage renders the terminal view for one game. The initial snapshot is
// rendered server side; later snapshots arrive over /ws/kiosk/{code}.
func KioskPage(snap kiosk.Snapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		initial, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		title := snap.GameName
		if title == "" {
			title = snap.GameCode
		}
		_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>`+templ.EscapeString(title)+` · Gameroom</title>
    <style>
      body { font-family: system-ui, sans-serif; margin: 0; background: #0e1220; color: #f2f4f8; }
      main { max-width: 1100px; margin: 0 auto; padding: 32px; display: grid; gap: 24px; grid-template-columns: 2fr 1fr; }
      section { background: #181e33; border-radius: 12px; padding: 20px; }
      .error { color: #ff8a80; }
      .variants button { margin: 4px; padding: 12px 18px; border-radius: 8px; border: 1px solid #3a4670; background: #232b48; color: inherit; }
      .variants button.selected { background: #3f6df6; border-color: #3f6df6; }
      #start { width: 100%; padding: 18px; font-size: 1.4rem; border-radius: 10px; border: 0; background: #2ecc71; color: #0e1220; }
      #start:disabled { background: #4a5068; color: #9aa2b8; }
      table { width: 100%; border-collapse: collapse; }
      .instructions { background: #232b48; border-radius: 8px; padding: 12px 16px; }
      td, th { padding: 6px 8px; text-align: left; border-bottom: 1px solid #2a3150; }
    </style>
  </head>
  <body data-game-code="`+templ.EscapeString(snap.GameCode)+`">
    <main>
      <section>
        <h1 id="gameName">`+templ.EscapeString(title)+`</h1>
        <p id="gameDescription">`+templ.EscapeString(snap.GameDescription)+`</p>
        <p id="loadError" class="error">`+templ.EscapeString(snap.Error)+`</p>
        <div id="variants" class="variants">`)
		for _, variant := range snap.Variants {
			writeVariant(w, variant)
		}
		_, _ = io.WriteString(w, `</div>
        <div id="instructions" class="instructions">`)
		if selected, ok := snap.SelectedVariant(); ok {
			Markup(selected.Instructions).writeFull(w)
		}
		_, _ = io.WriteString(w, `</div>
        <h2>Players <span id="playerCount">`+itoa(len(snap.Players))+`</span>/`+itoa(snap.MaxPlayers)+`</h2>
        <table>
          <thead><tr><th>Player</th><th>Time left</th><th>Score</th><th>Reward</th></tr></thead>
          <tbody id="players">`)
		for _, player := range snap.Players {
			writePlayer(w, player)
		}
		_, _ = io.WriteString(w, `</tbody>
        </table>
        <p id="scanMessage"></p>
      </section>
      <section>
        <h2>High scores</h2>
        <p>Today: <strong id="hsToday">`+templ.EscapeString(snap.HighScores.Today)+`</strong></p>
        <p>Last 90 days: <strong id="hs90">`+templ.EscapeString(snap.HighScores.Last90Days)+`</strong></p>
        <p>All time: <strong id="hsAll">`+templ.EscapeString(snap.HighScores.AllTime)+`</strong></p>
        <p>Status: <strong id="status">`+templ.EscapeString(string(snap.Status))+`</strong></p>
        <button id="start"`+disabledAttr(!snap.StartEnabled)+`>Start game</button>
        <p id="startMessage"></p>
      </section>
    </main>
    <script type="application/json" id="initialSnapshot">`)
		_, _ = w.Write(initial)
		_, _ = io.WriteString(w, `</script>
    <script>
      const code = document.body.dataset.gameCode;
      const api = "/api/kiosk/" + encodeURIComponent(code);
      const el = (id) => document.getElementById(id);
      const text = (tag, value) => { const node = document.createElement(tag); node.textContent = value == null ? "" : value; return node; };

      function render(snap) {
        el("gameName").textContent = snap.game_name || snap.game_code;
        el("gameDescription").textContent = snap.game_description || "";
        el("loadError").textContent = snap.error || "";
        const variants = el("variants");
        variants.replaceChildren();
        let instructions = "";
        (snap.variants || []).forEach((variant) => {
          const button = text("button", variant.name);
          button.type = "button";
          button.dataset.variantId = variant.id;
          if (variant.selected) { button.className = "selected"; instructions = variant.instructions; }
          variants.appendChild(button);
        });
        el("instructions").innerHTML = instructions || "";
        const players = el("players");
        players.replaceChildren();
        (snap.players || []).forEach((player) => {
          const row = document.createElement("tr");
          [player.name || player.wristband_id, player.time_left, player.score, player.reward].forEach((value) => row.appendChild(text("td", value)));
          players.appendChild(row);
        });
        el("playerCount").textContent = (snap.players || []).length;
        el("hsToday").textContent = snap.high_scores.today;
        el("hs90").textContent = snap.high_scores.last_90_days;
        el("hsAll").textContent = snap.high_scores.all_time;
        el("status").textContent = snap.status;
        el("start").disabled = !snap.start_enabled;
      }

      async function post(path, body) {
        const res = await fetch(api + path, {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: body ? JSON.stringify(body) : undefined
        });
        const data = await res.json().catch(() => ({}));
        if (!res.ok) throw new Error(data.error || "Request failed.");
        return data;
      }

      el("variants").addEventListener("click", async (event) => {
        const id = event.target.dataset && event.target.dataset.variantId;
        if (!id) return;
        try { await post("/variant", { variant_id: Number(id) }); } catch (err) { el("startMessage").textContent = err.message; }
      });

      el("start").addEventListener("click", async () => {
        el("start").disabled = true;
        try {
          const data = await post("/start");
          el("startMessage").textContent = data.message || "";
        } catch (err) {
          el("startMessage").textContent = err.message;
        }
      });

      let pollTimer = null;
      function poll() {
        if (pollTimer) return;
        pollTimer = setInterval(async () => {
          const res = await fetch(api).catch(() => null);
          if (res && res.ok) render(await res.json());
        }, 1000);
      }

      let socket = null;
      let closing = false;
      function connect() {
        const proto = location.protocol === "https:" ? "wss://" : "ws://";
        socket = new WebSocket(proto + location.host + "/ws/kiosk/" + encodeURIComponent(code));
        socket.addEventListener("message", (event) => {
          const snap = JSON.parse(event.data);
          if (snap.reload) { window.location.reload(); return; }
          render(snap);
        });
        socket.addEventListener("open", () => { if (pollTimer) { clearInterval(pollTimer); pollTimer = null; } });
        socket.addEventListener("close", () => {
          if (closing) return;
          poll();
          setTimeout(connect, 3000);
        });
      }

      // Hook for the terminal host's wristband reader, removed with the page.
      window.gameroomScan = (wristbandId) => post("/scan", { wristband_id: wristbandId })
        .then(() => { el("scanMessage").textContent = ""; })
        .catch((err) => { el("scanMessage").textContent = err.message; });

      window.addEventListener("pagehide", () => {
        closing = true;
        delete window.gameroomScan;
        if (pollTimer) { clearInterval(pollTimer); pollTimer = null; }
        if (socket) socket.close();
      });

      render(JSON.parse(el("initialSnapshot").textContent));
      connect();
    </script>
  </body>
</html>
`)
		return nil
	})
}

func writeVariant(w io.Writer, variant kiosk.VariantView) {
	class := ""
	if variant.Selected {
		class = ` class="selected"`
	}
	_, _ = io.WriteString(w, `<button type="button" data-variant-id="`+itoa(variant.ID)+`"`+class+`>`+templ.EscapeString(variant.Name)+`</button>`)
}

func writePlayer(w io.Writer, player kiosk.PlayerView) {
	name := player.Name
	if name == "" {
		name = player.WristbandID
	}
	_, _ = io.WriteString(w, `<tr><td>`+templ.EscapeString(name)+`</td><td>`+templ.EscapeString(player.TimeLeft)+
		`</td><td>`+templ.EscapeString(player.Score)+`</td><td>`+templ.EscapeString(player.Reward)+`</td></tr>`)
}

func disabledAttr(disabled bool) string {
	if disabled {
		return " disabled"
	}
	return ""
}
