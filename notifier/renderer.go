package notifier

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/osteele/liquid"

	"traffic-reporter/models"
)

const HTML_EXT = "html"
const TEXT_EXT = "txt"

// TemplateRenderer renders report templates stored as <dir>/<id>.<ext>.
// Parsed templates are cached by file name.
type TemplateRenderer struct {
	engine *liquid.Engine
	dir    string
	cache  sync.Map // map[string]*liquid.Template
}

func NewTemplateRenderer(dir string) *TemplateRenderer {
	engine := liquid.NewEngine()
	// {{ value | signed }} renders +25 / -5 / 0
	engine.RegisterFilter("signed", func(v int) string {
		if v > 0 {
			return fmt.Sprintf("+%d", v)
		}
		return fmt.Sprintf("%d", v)
	})
	return &TemplateRenderer{engine: engine, dir: dir}
}

// Render renders template id with extension ext against the payload.
func (r *TemplateRenderer) Render(templateID, ext string, payload *models.ReportPayload) (string, error) {
	tpl, err := r.template(templateID + "." + ext)
	if err != nil {
		return "", err
	}
	out, err := tpl.RenderString(ReportBindings(payload))
	if err != nil {
		return "", fmt.Errorf("render template %s.%s: %w", templateID, ext, err)
	}
	return out, nil
}

func (r *TemplateRenderer) template(name string) (*liquid.Template, error) {
	if cached, ok := r.cache.Load(name); ok {
		return cached.(*liquid.Template), nil
	}
	source, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}
	tpl, err := r.engine.ParseTemplate(source)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	r.cache.Store(name, tpl)
	return tpl, nil
}

// ReportBindings flattens a payload into the variables templates see.
// Each row carries its counts in the order of weeks, and bar_width scales the
// variation against max_variation as a 0..100 percentage.
func ReportBindings(p *models.ReportPayload) liquid.Bindings {
	b := liquid.Bindings{
		"subject":         p.Subject,
		"day_name":        p.DayName,
		"weeks":           p.Weeks,
		"max_variation":   p.MaxVariation,
		"last_hour":       p.LastHour,
		"last_hour_total": p.LastHourTotal,
		"rows":            []map[string]interface{}{},
	}
	r := p.Report
	if r == nil {
		return b
	}

	scale := p.MaxVariation
	if scale <= 0 {
		scale = 1
	}
	rows := make([]map[string]interface{}, 0, len(r.HourlyData))
	for _, row := range r.HourlyData {
		counts := make([]int, 0, len(p.Weeks))
		for _, w := range p.Weeks {
			counts = append(counts, row.PerWeek[w])
		}
		v := row.VariationPercent
		if v < 0 {
			v = -v
		}
		width := v * 100 / scale
		if width > 100 {
			width = 100
		}
		rows = append(rows, map[string]interface{}{
			"hour":      row.Hour,
			"counts":    counts,
			"variation": row.VariationPercent,
			"bar_width": width,
		})
	}
	b["rows"] = rows
	b["year"] = r.Year
	b["start_week"] = r.StartWeek
	b["end_week"] = r.EndWeek

	d := r.DailyVariation
	b["daily"] = map[string]interface{}{
		"previous_week":      d.PreviousWeek,
		"current_week":       d.CurrentWeek,
		"previous_total":     d.PreviousTotal,
		"current_total":      d.CurrentTotal,
		"previous_last_hour": d.PreviousLastHour,
		"current_last_hour":  d.CurrentLastHour,
		"difference":         d.Difference,
		"variation":          d.VariationPercent,
	}

	c := r.CurrentTimeSummary
	b["current"] = map[string]interface{}{
		"hour":           c.Hour,
		"current_week":   c.CurrentWeek,
		"previous_week":  c.PreviousWeek,
		"current_count":  c.CurrentCount,
		"previous_count": c.PreviousCount,
		"difference":     c.Difference,
		"variation":      c.VariationPercent,
	}

	if m := r.DailyMetaVsReal; m != nil {
		b["meta"] = map[string]interface{}{
			"has_meta":    m.HasMeta,
			"date":        m.Date,
			"real_count":  m.RealCount,
			"meta_count":  m.MetaCount,
			"achievement": fmt.Sprintf("%.2f", m.AchievementPercent),
			"difference":  m.Difference,
			"status":      m.Status,
		}
	}
	return b
}
