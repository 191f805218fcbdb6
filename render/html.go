package render

import (
	"encoding/json"
	"html/template"
	"io"
	"os"

	"github.com/tracekit/callscope/calltrace"
	"github.com/tracekit/callscope/report"
)

// An HTMLRenderer writes a self-contained interactive HTML report. Call
// nodes are collapsible; no external assets are required, so the file can be
// opened directly in a browser.
type HTMLRenderer struct {
	Title string
}

// NewHTMLRenderer creates an HTMLRenderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{Title: "Call Trace"}
}

// Emit projects the forest and writes the HTML report to the target path.
func (r *HTMLRenderer) Emit(roots []*calltrace.Frame, target string) error {
	file, err := os.Create(target)
	if err != nil {
		return err
	}
	defer file.Close()

	return r.Write(report.Project(roots), file)
}

// Write writes the interactive report to w.
func (r *HTMLRenderer) Write(nodes []*report.ReportNode, w io.Writer) error {
	// json.Marshal escapes <, > and & by default, so the payload cannot
	// break out of the script element.
	data, err := json.Marshal(nodes)
	if err != nil {
		return err
	}

	return pageTemplate.Execute(w, pageData{
		Title: r.Title,
		Trace: template.JS(data),
	})
}

type pageData struct {
	Title string
	Trace template.JS
}

var pageTemplate = template.Must(template.New("trace").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  body {
    font-family: 'Consolas', 'Monaco', monospace;
    background: #1e1e1e;
    color: #d4d4d4;
    padding: 20px;
    font-size: 14px;
  }
  h1 { color: #4ec9b0; font-size: 22px; }
  .node { margin-left: 20px; }
  .header {
    padding: 4px 8px;
    margin: 4px 0;
    background: #2d2d30;
    border-left: 3px solid #007acc;
    border-radius: 4px;
    cursor: pointer;
  }
  .header:hover { background: #3e3e42; }
  .toggle { color: #858585; display: inline-block; width: 14px; }
  .label { color: #dcdcaa; }
  .arrow { color: #858585; margin: 0 6px; }
  .ret { color: #ce9178; }
  .children.collapsed { display: none; }
  .empty { color: #858585; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div id="tree"></div>
<script>
  const trace = {{.Trace}};

  function renderNode(node) {
    const div = document.createElement('div');
    div.className = 'node';

    const header = document.createElement('div');
    header.className = 'header';

    const toggle = document.createElement('span');
    toggle.className = 'toggle';
    toggle.textContent = node.children ? '▼' : '·';

    const label = document.createElement('span');
    label.className = 'label';
    label.textContent = node.label;

    const arrow = document.createElement('span');
    arrow.className = 'arrow';
    arrow.textContent = '→';

    const ret = document.createElement('span');
    ret.className = 'ret';
    ret.textContent = node.return_label;

    header.append(toggle, label, arrow, ret);
    div.appendChild(header);

    if (node.children) {
      const children = document.createElement('div');
      children.className = 'children';
      node.children.forEach(c => children.appendChild(renderNode(c)));
      div.appendChild(children);

      header.addEventListener('click', () => {
        children.classList.toggle('collapsed');
        toggle.textContent =
          children.classList.contains('collapsed') ? '▶' : '▼';
      });
    }

    return div;
  }

  const tree = document.getElementById('tree');
  if (trace === null || trace.length === 0) {
    tree.innerHTML = '<div class="empty">No calls traced.</div>';
  } else {
    trace.forEach(n => tree.appendChild(renderNode(n)));
  }
</script>
</body>
</html>
`))
