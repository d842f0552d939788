package server

import (
	"html/template"
	"net/http"

	"github.com/forPelevin/scenereel/internal/config"
)

var formTmpl = template.Must(template.New("form").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>scenereel</title></head>
<body>
<h1>scenereel</h1>
<p>Paste a script. Separate scenes with blank lines.</p>
{{if .Error}}<p role="alert"><strong>{{.Error}}</strong></p>{{end}}
<form method="post" action="/generate">
<textarea name="script" rows="16" cols="80">{{.Script}}</textarea><br>
<label>Words per minute
<input type="number" name="wpm" min="{{.MinWPM}}" max="{{.MaxWPM}}" step="10" value="{{.WPM}}">
</label><br>
<button type="submit">Generate video</button>
</form>
</body>
</html>
`))

type formData struct {
	Script string
	WPM    int
	MinWPM int
	MaxWPM int
	Error  string
}

func renderForm(w http.ResponseWriter, status int, d formData) {
	d.MinWPM, d.MaxWPM = config.MinWPM, config.MaxWPM
	if d.WPM == 0 {
		d.WPM = config.DefaultWPM
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = formTmpl.Execute(w, d)
}
