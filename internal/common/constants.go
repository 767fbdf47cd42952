package common

// Merged dataset columns
const (
	ColPeriod                = "period"
	ColAllItemsYearOn        = "allItemsYearOn"
	ColFoodYearOn            = "foodYearOn"
	ColCoreYearOn            = "allItemsLessFrmProdAndEnergyYearOn"
	ColMoneySupplyM3         = "moneySupply_M3"
	ColMoneySupplyM2         = "moneySupply_M2"
	ColNarrowMoney           = "narrowMoney"
	ColCreditToPrivateSector = "creditToPrivateSector"
	ColCBNBills              = "cbnBills"
	ColModelPrediction       = "Model Prediction"
	ColTrueValues            = "True Values"
	ColPredictedInflation    = "Predicted Inflation"
	ColFeature               = "Feature"
	ColImportance            = "Importance"
)

// InflationColumns are plotted on the trend chart, in legend order.
var InflationColumns = []string{ColAllItemsYearOn, ColFoodYearOn, ColCoreYearOn}

// CorrelationCandidates are intersected with the dataset before building the heatmap.
var CorrelationCandidates = []string{ColAllItemsYearOn, ColMoneySupplyM3, ColMoneySupplyM2, ColNarrowMoney}

// Environment variable keys
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvDataPath       = "DATA_PATH"
	EnvModelPath      = "MODEL_PATH"
	EnvXTestPath      = "X_TEST_PATH"
	EnvYTestPath      = "Y_TEST_PATH"
	EnvListenPort     = "LISTEN_PORT"
	EnvMetricsPort    = "METRICS_PORT"
	EnvStorePath      = "STORE_PATH"
	EnvUploadTTL      = "UPLOAD_TTL"
	EnvPurgeSchedule  = "PURGE_SCHEDULE"
	EnvTypingDelay    = "TYPING_DELAY"
	EnvPreviewRows    = "PREVIEW_ROWS"
	EnvTopFeatures    = "TOP_FEATURES"
	EnvHistogramBins  = "HISTOGRAM_BINS"
	EnvMaxUploadBytes = "MAX_UPLOAD_BYTES"
	EnvWatchFiles     = "WATCH_FILES"
	EnvAllowedOrigins = "ALLOWED_ORIGINS"
	EnvReadTimeout    = "READ_TIMEOUT"
	EnvWriteTimeout   = "WRITE_TIMEOUT"
	EnvLogFormat      = "LOG_FORMAT"
)

// Configuration defaults
const (
	DefaultDataPath       = "merge_data.csv"
	DefaultModelPath      = "inflation_model.json"
	DefaultXTestPath      = "x_test.csv"
	DefaultYTestPath      = "y_test.csv"
	DefaultListenPort     = 8501
	DefaultMetricsPort    = 9090
	DefaultStorePath      = "data"
	DefaultPurgeSchedule  = "@every 10m"
	DefaultPreviewRows    = 5
	DefaultTopFeatures    = 15
	DefaultHistogramBins  = 30
	DefaultMaxUploadBytes = 10 << 20 // 10MB
)

// Download file names
const (
	FileMergedData      = "merge_data.csv"
	FileXTest           = "x_test.csv"
	FileYTest           = "y_test.csv"
	FilePredictions     = "inflation_predictions.csv"
	FileUserPredictions = "user_inflation_predictions.csv"
)
