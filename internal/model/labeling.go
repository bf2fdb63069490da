package model

// LabelPrinter is a CUPS label printer.
type LabelPrinter struct {
	ID                 string `json:"id"`
	CupsPrinterName    string `json:"cups_printer_name"`
	CupsServerHostname string `json:"cups_server_hostname"`
	CupsServerIP       string `json:"cups_server_ip"`
	Default            bool   `json:"default"`
}

// LabelClient maps a workstation hostname to its label printer.
type LabelClient struct {
	ID           string `json:"id"`
	Hostname     string `json:"hostname"`
	PrinterName  string `json:"printer_name"`
	CupsHostname string `json:"cups_hostname"`
}

// ZplTemplate is a named ZPL label template.
type ZplTemplate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Template string `json:"template"`
	Default  bool   `json:"default"`
}
