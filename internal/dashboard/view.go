package dashboard

import (
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"strings"

	"inflation-dashboard/internal/cfg"
	"inflation-dashboard/internal/charts"
	"inflation-dashboard/internal/common"
	"inflation-dashboard/internal/data"
	"inflation-dashboard/internal/ml"
	"inflation-dashboard/internal/narrative"
	"inflation-dashboard/internal/pipeline"
)

// pageView is everything the page template reads.
type pageView struct {
	*pipeline.Result
	Heatmap     [][]charts.HeatCell
	Typing      bool
	PreviewRows int
	MaxUploadMB float64
	Downloads   downloadLinks
}

type downloadLinks struct {
	Merged          string
	XTest           string
	YTest           string
	Predictions     string
	UserPredictions string
}

func newPageView(res *pipeline.Result, settings cfg.Settings) pageView {
	v := pageView{
		Result:      res,
		Typing:      settings.TypingDelay > 0,
		PreviewRows: settings.PreviewRows,
		MaxUploadMB: float64(settings.MaxUploadBytes) / (1 << 20),
		Downloads: downloadLinks{
			Merged:      "/download/" + common.FileMergedData,
			XTest:       "/download/" + common.FileXTest,
			YTest:       "/download/" + common.FileYTest,
			Predictions: "/download/" + common.FilePredictions,
		},
	}
	if res.Analysis.Correlation != nil {
		v.Heatmap = res.Analysis.Correlation.Cells()
	}
	if res.Upload != nil && res.Upload.DownloadID != "" {
		v.Downloads.UserPredictions = "/download/uploads/" + res.Upload.DownloadID
	}
	return v
}

var templateFuncs = template.FuncMap{
	"text": func(section string) string {
		t, _ := narrative.Text(narrative.Section(section))
		return t
	},
	"paragraphs": func(section string) []string {
		t, _ := narrative.Text(narrative.Section(section))
		var out []string
		for _, p := range strings.Split(t, "\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	},
	"json": func(v any) template.JS {
		b, err := json.Marshal(v)
		if err != nil {
			return template.JS("null")
		}
		return template.JS(b)
	},
	"float":      data.FormatFloat,
	"importance": ml.FormatImportance,
	"metric": func(v float64) string {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "n/a"
		}
		return fmt.Sprintf("%.4f", v)
	},
}
