package entity

// InvoiceRecord is an invoice PDF discovered in the catalog.
// Date is the YYYY-MM-DD name of the containing directory.
type InvoiceRecord struct {
	Account   string `json:"account"`
	InvoiceNo string `json:"invoice_no"`
	Date      string `json:"date"`
	Path      string `json:"path"`
}

// PaymentRecord is a payments workbook discovered in the catalog
type PaymentRecord struct {
	Account string `json:"account"`
	Date    string `json:"date"`
	Path    string `json:"path"`
}

// RecentInvoiceResult is the fetch result of a recent_invoice run
type RecentInvoiceResult struct {
	Found   bool           `json:"found"`
	Invoice *InvoiceRecord `json:"invoice,omitempty"`
}

// InvoicesResult is the fetch result of an invoices_period run
type InvoicesResult struct {
	Count    int             `json:"count"`
	Invoices []InvoiceRecord `json:"invoices"`
}

// PaymentsResult is the fetch result of a payments_period run
type PaymentsResult struct {
	Count    int             `json:"count"`
	Payments []PaymentRecord `json:"payments"`
}

// FetchResult holds exactly one variant, the one matching Task
type FetchResult struct {
	Task          TaskKind             `json:"task"`
	RecentInvoice *RecentInvoiceResult `json:"recent_invoice,omitempty"`
	Invoices      *InvoicesResult      `json:"invoices,omitempty"`
	Payments      *PaymentsResult      `json:"payments,omitempty"`
}

// NewRecentInvoiceResult wraps an optional invoice hit
func NewRecentInvoiceResult(inv *InvoiceRecord) *FetchResult {
	return &FetchResult{
		Task:          TaskRecentInvoice,
		RecentInvoice: &RecentInvoiceResult{Found: inv != nil, Invoice: inv},
	}
}

// NewInvoicesResult wraps invoice hits of a period query
func NewInvoicesResult(invoices []InvoiceRecord) *FetchResult {
	if invoices == nil {
		invoices = []InvoiceRecord{}
	}
	return &FetchResult{
		Task:     TaskInvoicesPeriod,
		Invoices: &InvoicesResult{Count: len(invoices), Invoices: invoices},
	}
}

// NewPaymentsResult wraps payment hits of a period query
func NewPaymentsResult(payments []PaymentRecord) *FetchResult {
	if payments == nil {
		payments = []PaymentRecord{}
	}
	return &FetchResult{
		Task:     TaskPaymentsPeriod,
		Payments: &PaymentsResult{Count: len(payments), Payments: payments},
	}
}

// Clone returns a deep copy
func (f *FetchResult) Clone() *FetchResult {
	if f == nil {
		return nil
	}
	out := &FetchResult{Task: f.Task}
	if f.RecentInvoice != nil {
		r := *f.RecentInvoice
		if r.Invoice != nil {
			inv := *r.Invoice
			r.Invoice = &inv
		}
		out.RecentInvoice = &r
	}
	if f.Invoices != nil {
		out.Invoices = &InvoicesResult{
			Count:    f.Invoices.Count,
			Invoices: append([]InvoiceRecord{}, f.Invoices.Invoices...),
		}
	}
	if f.Payments != nil {
		out.Payments = &PaymentsResult{
			Count:    f.Payments.Count,
			Payments: append([]PaymentRecord{}, f.Payments.Payments...),
		}
	}
	return out
}

// Payload returns the populated variant, the shape a drafting service sees
func (f *FetchResult) Payload() interface{} {
	if f == nil {
		return nil
	}
	switch f.Task {
	case TaskRecentInvoice:
		return f.RecentInvoice
	case TaskInvoicesPeriod:
		return f.Invoices
	case TaskPaymentsPeriod:
		return f.Payments
	}
	return nil
}
