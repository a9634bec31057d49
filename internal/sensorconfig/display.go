package sensorconfig

import "strings"

// Row is one line of the read-only configuration view. Section is empty for
// root keys.
type Row struct {
	Section string `json:"section,omitempty"`
	Key     string `json:"key"`
	Value   Value  `json:"value"`
	Label   string `json:"label"`
}

// RowGroup is a run of rows sharing one section.
type RowGroup struct {
	Section string `json:"section"`
	Rows    []Row  `json:"items"`
}

// Labels maps configuration keys to human-readable text.
type Labels map[string]string

// Label returns the text for key, falling back to the key itself.
func (l Labels) Label(key string) string {
	if text, ok := l[key]; ok {
		return text
	}
	return key
}

var englishLabels = Labels{
	"unit":            "Unit",
	"range":           "Range",
	"min":             "Minimum",
	"max":             "Maximum",
	"accuracy":        "Accuracy",
	"protocol":        "Protocol",
	"baudRate":        "Baud Rate",
	"dataBits":        "Data Bits",
	"stopBits":        "Stop Bits",
	"parity":          "Parity",
	"address":         "Device Address",
	"timeout":         "Timeout",
	"interval":        "Sampling Interval",
	"host":            "Host",
	"ip":              "IP Address",
	"port":            "Port",
	"sensorModel":     "Sensor Model",
	"manufacturer":    "Manufacturer",
	"calibrationDate": "Calibration Date",
	"enable":          "Enabled",
	"description":     "Description",
}

var chineseLabels = Labels{
	"unit":            "单位",
	"range":           "范围",
	"min":             "最小值",
	"max":             "最大值",
	"accuracy":        "精度",
	"protocol":        "通讯协议",
	"baudRate":        "波特率",
	"dataBits":        "数据位",
	"stopBits":        "停止位",
	"parity":          "校验位",
	"address":         "设备地址",
	"timeout":         "超时时间",
	"interval":        "采集间隔",
	"host":            "主机地址",
	"ip":              "IP地址",
	"port":            "端口号",
	"sensorModel":     "传感器型号",
	"manufacturer":    "制造商",
	"calibrationDate": "校准日期",
	"enable":          "启用状态",
	"description":     "描述",
}

// LabelsFor returns the label table for a locale. "zh", "zh-CN" and
// "zh_CN" select Chinese; anything else gets English.
func LabelsFor(locale string) Labels {
	l := strings.ToLower(strings.ReplaceAll(locale, "_", "-"))
	if l == "zh" || strings.HasPrefix(l, "zh-") {
		return chineseLabels
	}
	return englishLabels
}

// Format flattens cfg into display rows using the English labels.
func Format(cfg *Config) []Row {
	return FormatWith(cfg, englishLabels)
}

// FormatWith flattens cfg into display rows. Unknown keys use the key as
// their label.
//
// A flat config yields one row per root key. Once cfg has sections only
// section entries are shown, in section order; root keys are left out.
func FormatWith(cfg *Config, labels Labels) []Row {
	if cfg == nil {
		return nil
	}
	rows := make([]Row, 0, cfg.Len())
	if cfg.Flat() {
		for _, e := range cfg.root.Entries() {
			rows = append(rows, Row{Key: e.Key, Value: e.Value, Label: labels.Label(e.Key)})
		}
		return rows
	}
	for _, s := range cfg.sections {
		for _, e := range s.Entries() {
			rows = append(rows, Row{Section: s.name, Key: e.Key, Value: e.Value, Label: labels.Label(e.Key)})
		}
	}
	return rows
}

// FormatJSON formats a stored JSON configuration. Members that are not
// scalars or one-level objects (arrays, null, deeper nesting) produce no
// rows.
func FormatJSON(blob []byte, labels Labels) ([]Row, error) {
	cfg, err := FromJSON(blob)
	if err != nil {
		return nil, err
	}
	return FormatWith(cfg, labels), nil
}

// Group collects consecutive rows by section.
func Group(rows []Row) []RowGroup {
	var groups []RowGroup
	for _, r := range rows {
		if n := len(groups); n > 0 && groups[n-1].Section == r.Section {
			groups[n-1].Rows = append(groups[n-1].Rows, r)
			continue
		}
		groups = append(groups, RowGroup{Section: r.Section, Rows: []Row{r}})
	}
	return groups
}
