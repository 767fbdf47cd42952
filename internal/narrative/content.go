// Package narrative holds the static prose of the dashboard: introduction,
// data sources, data dictionary, chart observations and footer.
package narrative

// Section identifies a block of prose that can be streamed with the typing effect.
type Section string

const (
	SectionIntro          Section = "intro"
	SectionSources        Section = "sources"
	SectionEDA            Section = "eda"
	SectionTrendNotes     Section = "trend-notes"
	SectionHeatmapNotes   Section = "heatmap-notes"
	SectionInflationDist  Section = "inflation-distribution"
	SectionMoneyDist      Section = "money-distribution"
	SectionModel          Section = "model"
	SectionImportance     Section = "importance"
	SectionUpload         Section = "upload"
	SectionDictInflation  Section = "dictionary-inflation"
	SectionDictMoneySuppl Section = "dictionary-money-supply"
)

type Link struct {
	Label string
	Title string
	URL   string
}

// Variable is one row of the data dictionary.
type Variable struct {
	Name        string
	Description string
	Unit        string
}

type DictionaryTable struct {
	Section   Section
	Heading   string
	Variables []Variable
}

type Content struct {
	Title      string
	Sources    []Link
	Dictionary []DictionaryTable
	Contact    Link
	Notebook   Link
}

var texts = map[Section]string{
	SectionIntro: "This project merges Inflation, Crude Oil, MPR, Money Supply, etc., for descriptive " +
		"and inferential analysis on prices of goods and services in Nigeria enabling " +
		"data-driven decision-making to achieve macroeconomic goals.\n\n" +
		"It explores relationships among variables to guide contractionary and expansionary " +
		"monetary policies.\n\n" +
		"Note: stochastic factors like disease outbreaks or wars can affect model accuracy. " +
		"Exchange rate data were excluded due to limited availability from CBN.\n\n" +
		"Machine learning algorithms perform better with more data.",
	SectionSources: "Data Sources",
	SectionEDA:     "Exploratory Data Analysis",
	SectionTrendNotes: "Overall inflation shows steady increases from mid-2021 with over 40% growth since 2008.\n" +
		"Food inflation is more volatile and higher often driving overall inflation.\n" +
		"Core inflation is smoother since it excludes farm produce and energy.",
	SectionHeatmapNotes:   "High positive correlation (close to +1) indicates a strong relationship between money supply and inflation.",
	SectionInflationDist:  "Distribution of Inflation",
	SectionMoneyDist:      "Distribution of Broad Money Supply (M3)",
	SectionModel:          "Inflation Prediction Model",
	SectionImportance:     "Top 15 Most Important Features in Predicting Inflation",
	SectionUpload:         "Upload Your Own CSV to Make Predictions",
	SectionDictInflation:  "Inflation Variables (from NBS CPI data)",
	SectionDictMoneySuppl: "Money Supply Variables (from CBN data)",
}

// Text returns the prose for a section and whether it exists.
func Text(s Section) (string, bool) {
	t, ok := texts[s]
	return t, ok
}

// Default returns the dashboard's static content.
func Default() Content {
	return Content{
		Title: "Inflation Inference Dashboard",
		Sources: []Link{
			{Label: "Inflation data", Title: "Inflation Rate (CBN)", URL: "https://www.cbn.gov.ng/rates/inflrates.html"},
			{Label: "Money supply", Title: "Money and Credit Statistics", URL: "https://www.cbn.gov.ng/rates/mnycredit.html"},
			{Label: "Crude Oil", Title: "Crude Oil Price", URL: "https://www.cbn.gov.ng/rates/crudeoil.html"},
			{Label: "Money Market", Title: "Money Market Indicators", URL: "https://www.cbn.gov.ng/rates/mnymktind.html"},
		},
		Dictionary: []DictionaryTable{
			{
				Section: SectionDictInflation,
				Heading: texts[SectionDictInflation],
				Variables: []Variable{
					{Name: "allItemsYearOn", Description: "YoY % change in CPI for all items.", Unit: "%"},
					{Name: "foodYearOn", Description: "YoY % change in CPI for food items.", Unit: "%"},
					{Name: "allItemsLessFrmProdAndEnergyYearOn", Description: "Core inflation (excluding farm produce and energy).", Unit: "%"},
				},
			},
			{
				Section: SectionDictMoneySuppl,
				Heading: texts[SectionDictMoneySuppl],
				Variables: []Variable{
					{Name: "moneySupply_M3", Description: "Broadest money supply (M2 + other liquid assets).", Unit: "₦ billions"},
					{Name: "moneySupply_M2", Description: "Broad money.", Unit: "₦ billions"},
					{Name: "narrowMoney", Description: "Currency + demand deposits.", Unit: "₦ billions"},
					{Name: "creditToPrivateSector", Description: "Credit to private sector.", Unit: "₦ billions"},
					{Name: "cbnBills", Description: "CBN-issued securities.", Unit: "₦ billions"},
				},
			},
		},
		Contact:  Link{Label: "Contact", Title: "nosakhareasowata94@gmail.com", URL: "mailto:nosakhareasowata94@gmail.com"},
		Notebook: Link{Label: "View the full notebook", Title: "GitHub Notebook Viewer", URL: "https://github.com/Nosakhare-code/inflation-dashboard/blob/main/CBN%20Money%20supply%20and%20Inflation.ipynb"},
	}
}
