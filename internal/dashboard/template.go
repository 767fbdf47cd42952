package dashboard

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>{{.Content.Title}}</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"></script>
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5; }
        .container { max-width: 1200px; margin: 0 auto; }
        .header { background: linear-gradient(135deg, #1f77b4 0%, #2ca02c 100%); color: white; padding: 20px; border-radius: 10px; margin-bottom: 20px; }
        .header h1 { margin: 0; font-size: 2.2em; text-align: center; }
        .card { background: white; border-radius: 10px; padding: 20px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); margin-bottom: 20px; }
        .card h2, .card h3 { margin-top: 0; color: #333; border-bottom: 2px solid #eee; padding-bottom: 10px; }
        .typed { white-space: pre-line; line-height: 1.5; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(420px, 1fr)); gap: 20px; }
        table.data { width: 100%; border-collapse: collapse; margin-top: 10px; font-size: 0.9em; }
        table.data th, table.data td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #eee; }
        table.data th { background-color: #f8f9fa; font-weight: 600; }
        table.heatmap { border-collapse: collapse; margin: 10px auto; }
        table.heatmap td, table.heatmap th { padding: 10px 14px; text-align: center; font-size: 0.9em; }
        .notice { padding: 12px; border-radius: 6px; margin: 10px 0; }
        .notice-info { background: #e7f1fb; color: #0c5460; }
        .notice-warning { background: #fff3cd; color: #856404; }
        .notice-error { background: #f8d7da; color: #721c24; }
        .notice-success { background: #d4edda; color: #155724; }
        .downloads a { display: inline-block; margin: 6px 10px 6px 0; padding: 6px 12px; border-radius: 4px; background: #1f77b4; color: white; text-decoration: none; }
        .metric { display: inline-block; margin-right: 24px; }
        .metric-label { color: #666; }
        .metric-value { font-weight: bold; color: #333; }
        footer { text-align: center; color: #666; margin-top: 30px; }
    </style>
</head>
<body>
<div class="container">
    <div class="header"><h1>{{.Content.Title}}</h1></div>

    <div class="card">
        <div class="typed" data-section="intro">{{text "intro"}}</div>
    </div>

    <div class="card">
        <h2 class="typed" data-section="sources">{{text "sources"}}</h2>
        <ul>
        {{range .Content.Sources}}<li>{{.Label}}: <a href="{{.URL}}" target="_blank" rel="noopener">{{.Title}}</a></li>
        {{end}}</ul>
    </div>

    <div class="card">
        <h2>Data Dictionary</h2>
        {{range .Content.Dictionary}}
        <h3 class="typed" data-section="{{.Section}}">{{.Heading}}</h3>
        <table class="data">
            <thead><tr><th>Variable</th><th>Description</th><th>Unit</th></tr></thead>
            <tbody>
            {{range .Variables}}<tr><td>{{.Name}}</td><td>{{.Description}}</td><td>{{.Unit}}</td></tr>
            {{end}}</tbody>
        </table>
        {{end}}
    </div>

    <div class="card">
        <h2 class="typed" data-section="eda">{{text "eda"}}</h2>
        {{if .Data.Err}}
            <div class="notice notice-error">The merged dataset could not be loaded: {{.Data.Err}}</div>
        {{else}}
            {{with .Data.Warning}}<div class="notice notice-warning">{{.}}</div>{{end}}
            <p>{{.Data.Rows}} rows, {{len .Data.Columns}} columns.</p>
            {{template "table" .Data.Preview}}
            <div class="downloads"><a href="{{.Downloads.Merged}}">Download merge_data.csv</a></div>
        {{end}}
    </div>

    {{if .Analysis.Trend}}
    <div class="card">
        <h3>{{.Analysis.Trend.Title}}</h3>
        <canvas id="trend-chart" height="110"></canvas>
        <ul class="typed" data-section="trend-notes">{{range paragraphs "trend-notes"}}<li>{{.}}</li>{{end}}</ul>
    </div>
    {{end}}

    {{if .Analysis.Correlation}}
    <div class="card">
        <h3>{{.Analysis.Correlation.Title}}</h3>
        <table class="heatmap">
            <tr><th></th>{{range .Analysis.Correlation.Columns}}<th>{{.}}</th>{{end}}</tr>
            {{range $i, $row := .Heatmap}}
            <tr><th>{{index $.Analysis.Correlation.Columns $i}}</th>
                {{range $row}}<td style="background-color: {{.Background}}; color: {{.Foreground}}">{{.Text}}</td>{{end}}
            </tr>
            {{end}}
        </table>
        <p class="typed" data-section="heatmap-notes">{{text "heatmap-notes"}}</p>
    </div>
    {{end}}

    {{if .Analysis.Distributions}}
    <div class="grid">
        {{range $i, $h := .Analysis.Distributions}}
        <div class="card">
            <h3>{{$h.Title}}</h3>
            <canvas id="dist-{{$i}}" height="200"></canvas>
        </div>
        {{end}}
    </div>
    {{end}}

    <div class="card">
        <h2 class="typed" data-section="model">{{text "model"}}</h2>
        {{if .Model.Err}}
            <div class="notice notice-error">Error loading model: {{.Model.Err}}</div>
        {{else}}
            <p><span class="metric"><span class="metric-label">Artifact:</span> <span class="metric-value">{{.Model.Kind}}</span></span>
               <span class="metric"><span class="metric-label">Estimator:</span> <span class="metric-value">{{.Model.Estimator}}</span></span></p>
            <p><span class="metric-label">Best parameters:</span> <code>{{.Model.BestParams}}</code></p>

            {{with .Evaluation}}
                {{if .Err}}
                    <div class="notice notice-warning">Test set evaluation unavailable: {{.Err}}</div>
                {{else}}
                    <p><span class="metric"><span class="metric-label">Test rows:</span> <span class="metric-value">{{.Rows}}</span></span>
                       <span class="metric"><span class="metric-label">MAE:</span> <span class="metric-value">{{metric .MAE}}</span></span>
                       <span class="metric"><span class="metric-label">RMSE:</span> <span class="metric-value">{{metric .RMSE}}</span></span>
                       <span class="metric"><span class="metric-label">R²:</span> <span class="metric-value">{{metric .R2}}</span></span></p>
                    {{template "table" .Preview}}
                    <div class="downloads">
                        <a href="{{$.Downloads.Predictions}}">Download inflation_predictions.csv</a>
                        <a href="{{$.Downloads.XTest}}">Download x_test.csv</a>
                        <a href="{{$.Downloads.YTest}}">Download y_test.csv</a>
                    </div>
                {{end}}
            {{end}}
        {{end}}
    </div>

    {{with .Importance}}
    <div class="card">
        <h2 class="typed" data-section="importance">{{text "importance"}}</h2>
        {{if not .Available}}
            <div class="notice notice-info">{{.Notice}}</div>
        {{else if .Err}}
            <div class="notice notice-warning">Feature importances could not be ranked: {{.Err}}</div>
        {{else}}
            <canvas id="importance-chart" height="140"></canvas>
            {{template "table" .Rows}}
        {{end}}
    </div>
    {{end}}

    {{if not .Model.Err}}
    <div class="card">
        <h2 class="typed" data-section="upload">{{text "upload"}}</h2>
        <form method="post" action="/" enctype="multipart/form-data">
            <input type="file" name="file" accept=".csv,.xlsx">
            <button type="submit">Predict</button>
            <small>CSV or XLSX, up to {{printf "%.0f" .MaxUploadMB}} MB. Columns must match the training features in name and order.</small>
        </form>
        {{with .Upload}}
            {{if .Preview}}
                <div class="notice notice-success">File Uploaded Successfully: {{.Name}} ({{.Rows}} rows)</div>
                {{template "table" .Preview}}
            {{end}}
            {{if .Err}}
                <div class="notice notice-error">Prediction error: {{.Err}}</div>
            {{else}}
                <h3>Predicted Inflation</h3>
                {{template "table" .Results}}
                {{with $.Downloads.UserPredictions}}<div class="downloads"><a href="{{.}}">Download user_inflation_predictions.csv</a></div>{{end}}
            {{end}}
        {{end}}
    </div>
    {{end}}

    <footer>
        <p><a href="{{.Content.Notebook.URL}}" target="_blank" rel="noopener">{{.Content.Notebook.Label}}</a></p>
        <p>{{.Content.Contact.Label}}: <a href="{{.Content.Contact.URL}}">{{.Content.Contact.Title}}</a></p>
        <p>Generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>
    </footer>
</div>

<script>
    const trend = {{json .Analysis.Trend}};
    const distributions = {{json .Analysis.Distributions}};
    const importance = {{if .Importance}}{{json .Importance.Chart}}{{else}}null{{end}};
    const typing = {{.Typing}};

    if (trend && document.getElementById('trend-chart')) {
        const labels = trend.series.length ? trend.series[0].points.map(p => p.x) : [];
        new Chart(document.getElementById('trend-chart'), {
            type: 'line',
            data: {
                labels: labels,
                datasets: trend.series.map(s => ({
                    label: s.name, borderColor: s.color, backgroundColor: s.color,
                    data: s.points.map(p => ({x: p.x, y: p.y})), pointRadius: 0, borderWidth: 2
                }))
            },
            options: {
                plugins: { legend: { title: { display: true, text: trend.legendTitle } } },
                scales: { x: { title: { display: true, text: trend.xLabel } }, y: { title: { display: true, text: trend.yLabel } } }
            }
        });
    }

    (distributions || []).forEach((h, i) => {
        const el = document.getElementById('dist-' + i);
        if (!el) return;
        const bars = h.counts.map((c, j) => ({x: (h.edges[j] + h.edges[j + 1]) / 2, y: c}));
        new Chart(el, {
            data: {
                datasets: [
                    { type: 'bar', label: h.column, data: bars, backgroundColor: h.color, barPercentage: 1.0, categoryPercentage: 1.0 },
                    { type: 'line', label: 'density', data: h.density, borderColor: '#333', pointRadius: 0, borderWidth: 1.5 }
                ]
            },
            options: { scales: { x: { type: 'linear', title: { display: true, text: h.column } }, y: { title: { display: true, text: 'Count' } } } }
        });
    });

    if (importance && document.getElementById('importance-chart')) {
        new Chart(document.getElementById('importance-chart'), {
            type: 'bar',
            data: { labels: importance.labels, datasets: [{ label: importance.xLabel, data: importance.values, backgroundColor: importance.colors }] },
            options: {
                indexAxis: 'y',
                plugins: { legend: { display: false }, title: { display: true, text: importance.title } },
                scales: { x: { title: { display: true, text: importance.xLabel } }, y: { title: { display: true, text: importance.yLabel } } }
            }
        });
    }

    if (typing) {
        const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
        document.querySelectorAll('.typed').forEach(el => {
            const section = el.dataset.section;
            const full = el.innerHTML;
            const ws = new WebSocket(scheme + location.host + '/ws/narrative?section=' + encodeURIComponent(section));
            ws.onmessage = ev => {
                const frame = JSON.parse(ev.data);
                if (frame.done) { el.innerHTML = full; return; }
                el.textContent = frame.text;
            };
            ws.onerror = () => { el.innerHTML = full; };
        });
    }
</script>
</body>
</html>
{{define "table"}}{{if .}}<table class="data">
    <thead><tr>{{range index . 0}}<th>{{.}}</th>{{end}}</tr></thead>
    <tbody>{{range $i, $row := .}}{{if $i}}<tr>{{range $row}}<td>{{.}}</td>{{end}}</tr>{{end}}{{end}}</tbody>
</table>{{end}}{{end}}
`
