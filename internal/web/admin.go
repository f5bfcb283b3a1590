package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const adminStyles = `
    <style>
      body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6f8; color: #1d2330; }
      nav { background: #1d2330; padding: 12px 24px; }
      nav a { color: #c9d1e1; margin-right: 16px; text-decoration: none; }
      nav a.active { color: #fff; font-weight: 600; }
      main { padding: 24px; }
      .table-container { overflow-x: auto; background: #fff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
      table { border-collapse: collapse; width: 100%; }
      th, td { padding: 8px 12px; border-bottom: 1px solid #e3e6ec; text-align: left; vertical-align: top; }
      th a { color: inherit; text-decoration: none; }
      .pagination { display: flex; gap: 8px; align-items: center; padding: 12px; }
      .pagination a.disabled { pointer-events: none; opacity: .4; }
      dialog img { max-width: 480px; }
      .error { color: #b3261e; }
    </style>`

// AdminTablePage renders one sortable, paginated admin table.
func AdminTablePage(table Table, nav []NavLink) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>`+templ.EscapeString(table.Title)+` · Gameroom Admin</title>`+adminStyles+`
  </head>
  <body>
`)
		writeNav(w, nav)
		_, _ = io.WriteString(w, `    <main>
      <h1>`+templ.EscapeString(table.Title)+`</h1>
`)
		if table.Subtitle != "" {
			_, _ = io.WriteString(w, `      <p>`+templ.EscapeString(table.Subtitle)+`</p>
`)
		}
		_, _ = io.WriteString(w, `      <div class="table-container">
        <table>
          <thead><tr>`)
		for _, column := range table.Columns {
			writeHeader(w, table, column)
		}
		_, _ = io.WriteString(w, `</tr></thead>
          <tbody>
`)
		if len(table.Rows) == 0 {
			_, _ = io.WriteString(w, `            <tr><td colspan="`+itoa(len(table.Columns))+`">No records.</td></tr>
`)
		}
		for _, row := range table.Rows {
			_, _ = io.WriteString(w, `            <tr>`)
			for _, cell := range row {
				_, _ = io.WriteString(w, `<td>`)
				cell.render(w)
				_, _ = io.WriteString(w, `</td>`)
			}
			_, _ = io.WriteString(w, `</tr>
`)
		}
		_, _ = io.WriteString(w, `          </tbody>
        </table>
`)
		writePagination(w, table)
		_, _ = io.WriteString(w, `      </div>
    </main>
    <dialog id="cellModal">
      <button type="button" id="cellModalClose">Close</button>
      <div id="cellModalBody"></div>
    </dialog>
    <script>
      const modal = document.getElementById("cellModal");
      const body = document.getElementById("cellModalBody");
      document.getElementById("cellModalClose").addEventListener("click", () => modal.close());
      document.querySelectorAll("a.view-more").forEach((link) => {
        link.addEventListener("click", (event) => {
          event.preventDefault();
          body.replaceChildren();
          if (link.dataset.image) {
            const img = document.createElement("img");
            img.src = link.dataset.image;
            img.alt = "Player Signature";
            body.appendChild(img);
          } else {
            const tpl = link.nextElementSibling;
            if (tpl) body.appendChild(tpl.content.cloneNode(true));
          }
          modal.showModal();
        });
      });
      const sizes = document.getElementById("pageSize");
      if (sizes) sizes.addEventListener("change", () => { window.location = sizes.value; });
    </script>
  </body>
</html>
`)
		return nil
	})
}

func writeNav(w io.Writer, nav []NavLink) {
	if len(nav) == 0 {
		return
	}
	_, _ = io.WriteString(w, `    <nav>`)
	for _, link := range nav {
		class := ""
		if link.Active {
			class = ` class="active"`
		}
		_, _ = io.WriteString(w, `<a href="`+templ.EscapeString(link.Href)+`"`+class+`>`+templ.EscapeString(link.Label)+`</a>`)
	}
	_, _ = io.WriteString(w, `</nav>
`)
}

func writeHeader(w io.Writer, table Table, column Column) {
	label := templ.EscapeString(column.Label)
	if !column.Sortable {
		_, _ = io.WriteString(w, `<th>`+label+`</th>`)
		return
	}
	marker := ""
	if table.Sort.Key == column.Key {
		if table.Sort.Desc {
			marker = " ▼"
		} else {
			marker = " ▲"
		}
	}
	_, _ = io.WriteString(w, `<th><a href="`+templ.EscapeString(sortURL(table, column.Key))+`">`+label+marker+`</a></th>`)
}

func writePagination(w io.Writer, table Table) {
	p := table.Pagination
	link := func(label string, page int, enabled bool) string {
		if !enabled {
			return `<a class="disabled">` + templ.EscapeString(label) + `</a>`
		}
		return `<a href="` + templ.EscapeString(pageURL(table, page)) + `">` + templ.EscapeString(label) + `</a>`
	}
	_, _ = io.WriteString(w, `        <div class="pagination">`)
	_, _ = io.WriteString(w, link("<<", 1, p.HasPrev))
	_, _ = io.WriteString(w, link("<", p.PrevPage, p.HasPrev))
	_, _ = io.WriteString(w, link(">", p.NextPage, p.HasNext))
	_, _ = io.WriteString(w, link(">>", p.TotalPages, p.HasNext))
	_, _ = io.WriteString(w, `<span>Page <strong>`+itoa(p.Page)+` of `+itoa(p.TotalPages)+`</strong> · `+itoa(p.Total)+` total</span>`)
	sizes := table.PageSizes
	if len(sizes) == 0 {
		sizes = DefaultPageSizes
	}
	_, _ = io.WriteString(w, `<select id="pageSize">`)
	for _, size := range sizes {
		selected := ""
		if size == p.PerPage {
			selected = ` selected`
		}
		_, _ = io.WriteString(w, `<option value="`+templ.EscapeString(sizeURL(table, size))+`"`+selected+`>Show `+itoa(size)+`</option>`)
	}
	_, _ = io.WriteString(w, `</select></div>
`)
}

// ErrorPage renders a standalone error message.
func ErrorPage(title, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <title>`+templ.EscapeString(title)+`</title>`+adminStyles+`
  </head>
  <body>
    <main>
      <h1>`+templ.EscapeString(title)+`</h1>
      <p class="error">`+templ.EscapeString(message)+`</p>
    </main>
  </body>
</html>
`)
		return nil
	})
}
