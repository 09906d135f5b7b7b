package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/pixil98/go-factory/internal/economy"
	"github.com/pixil98/go-factory/internal/factory"
	"github.com/pixil98/go-factory/internal/messaging"
)

var templateFuncs = sprig.TxtFuncMap()

func mustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(templateFuncs).Parse(text))
}

// ExpandTemplate expands a template string using the provided data.
func ExpandTemplate(tmplStr string, data any) (string, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	return execute(tmpl, data)
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

var lookTemplate = mustTemplate("look", `Room {{ .ID }} ({{ .Phase }}), running for {{ .Elapsed }}
Score: {{ .Score }}

Players:
{{- range .Players }}
  {{ printf "%-20s" .Name }} {{ .Resources }} resources
{{- end }}

Factory:
{{- range .Parts }}
  {{ printf "%-12s" .Key }} {{ printf "%-18s" .Label }} lvl {{ printf "%-3d" .UpgradeCount }} next {{ printf "%-6d" .UpgradeCost }} {{ .Detail }}
{{- end }}`)

type partView struct {
	Key    string
	Label  string
	Detail string
	economy.Snapshot
}

type lookView struct {
	factory.RoomSnapshot
	Elapsed string
	Parts   []partView
}

func renderLook(s factory.RoomSnapshot) (string, error) {
	v := lookView{
		RoomSnapshot: s,
		Elapsed:      s.Elapsed.Truncate(time.Second).String(),
	}
	for _, k := range factory.Kinds() {
		snap := partSnapshot(s.Parts, k)
		v.Parts = append(v.Parts, partView{
			Key:      k.String(),
			Label:    k.Label(),
			Detail:   partDetail(k, snap.GameValues),
			Snapshot: snap,
		})
	}
	return execute(lookTemplate, v)
}

func partSnapshot(p factory.PartsSnapshot, k factory.Kind) economy.Snapshot {
	switch k {
	case factory.KindAssembler:
		return p.Assembler
	case factory.KindGenerator:
		return p.Generator
	case factory.KindAutomaton:
		return p.Automaton
	default:
		return p.CritMachine
	}
}

func partDetail(k factory.Kind, v []int) string {
	switch {
	case k == factory.KindAssembler && len(v) >= 2:
		return fmt.Sprintf("%d-%d score per click", v[0], v[1])
	case k == factory.KindGenerator && len(v) >= 3:
		return fmt.Sprintf("%d-%d resources every %d score", v[0], v[1], v[2])
	case k == factory.KindAutomaton && len(v) >= 4:
		return fmt.Sprintf("%d/%d running, clicks every %d-%dms", v[0], v[1], v[2], v[3])
	case k == factory.KindCritMachine && len(v) >= 2:
		return fmt.Sprintf("%d%% chance of +%d%%", v[0], v[1])
	default:
		return strings.Trim(fmt.Sprint(v), "[]")
	}
}

// eventView renders one kind of room notification. Events without a view are
// not shown to players.
type eventView struct {
	decode func(data []byte) (any, error)
	tmpl   *template.Template
}

func view[T any](name, text string) eventView {
	return eventView{
		decode: func(data []byte) (any, error) {
			var v T
			err := json.Unmarshal(data, &v)
			return v, err
		},
		tmpl: mustTemplate(name, text),
	}
}

var eventViews = map[string]eventView{
	"playerJoined":         view[factory.PlayerChange]("playerJoined", `{{ .Player.Name }} joined the room ({{ len .Players }} {{ if eq (len .Players) 1 }}player{{ else }}players{{ end }}).`),
	"playerLeft":           view[factory.PlayerChange]("playerLeft", `{{ .Player.Name }} left the room.`),
	"playerRenamed":        view[factory.PlayerRename]("playerRenamed", `{{ .OldName }} is now known as {{ .NewName }}.`),
	"chatMessage":          view[factory.ChatMessage]("chatMessage", `[{{ .At | date "15:04:05" }}] {{ .Name }}: {{ .Message }}`),
	"partUpgraded":         view[factory.PartUpgrade]("partUpgraded", `{{ .Kind.Label }} upgraded to level {{ .Snapshot.UpgradeCount }}, next upgrade costs {{ .Snapshot.UpgradeCost }}.`),
	"gameError":            view[factory.GameErrorNotice]("gameError", `{{ .Message }}`),
	"scoreIncremented":     view[factory.ScoreIncrement]("scoreIncremented", `{{ if .Crit }}Critical hit! +{{ .Delta }} score ({{ .Score }}).{{ end }}`),
	"resourcesIncremented": view[factory.ResourcesIncrement]("resourcesIncremented", `{{ if .Crit }}Critical payout! Everyone gains {{ .Delta }} resources.{{ end }}`),
	"resourceDeducted":     view[factory.ResourceDeduction]("resourceDeducted", `You spent {{ .Amount }} resources, {{ .Player.Resources }} left.`),
}

// renderEvent turns a broker message into text. An empty string means the
// event is not shown.
func renderEvent(msg []byte) (string, error) {
	var env messaging.Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return "", fmt.Errorf("decoding envelope: %w", err)
	}

	v, ok := eventViews[env.Event]
	if !ok {
		return "", nil
	}
	data, err := v.decode(env.Data)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", env.Event, err)
	}
	out, err := execute(v.tmpl, data)
	return strings.TrimSpace(out), err
}
