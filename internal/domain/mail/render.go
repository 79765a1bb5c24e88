package mail

import "strings"

// RenderContext is the fixed placeholder vocabulary available to reminder
// templates.
type RenderContext struct {
	ClientName    string
	PAN           string
	GSTIN         string
	PeriodLabel   string
	DueDate       string
	WorkName      string
	StatutoryForm string
	FirmName      string
	EmployeeName  string
}

// Render substitutes {{placeholder}} tokens in tmpl from ctx. Unknown tokens
// are left in place so a typo in a template is visible in the sent mail
// rather than silently blanked.
func Render(tmpl string, ctx RenderContext) string {
	r := strings.NewReplacer(
		"{{client_name}}", ctx.ClientName,
		"{{pan}}", ctx.PAN,
		"{{gstin}}", ctx.GSTIN,
		"{{period_label}}", ctx.PeriodLabel,
		"{{due_date}}", ctx.DueDate,
		"{{work_name}}", ctx.WorkName,
		"{{statutory_form}}", ctx.StatutoryForm,
		"{{firm_name}}", ctx.FirmName,
		"{{employee_name}}", ctx.EmployeeName,
	)
	return r.Replace(tmpl)
}

// Default templates, used when the work type does not configure its own.
const (
	DefaultClientSubject = "Reminder: {{work_name}} for {{period_label}} due {{due_date}}"
	DefaultClientBody    = "Dear {{client_name}},\n\n" +
		"This is a reminder that {{work_name}} ({{statutory_form}}) for {{period_label}} " +
		"is due on {{due_date}}. Please share the required documents at the earliest.\n\n" +
		"Regards,\n{{firm_name}}"

	DefaultEmployeeSubject = "Pending: {{work_name}} / {{client_name}} ({{period_label}})"
	DefaultEmployeeBody    = "Hi {{employee_name}},\n\n" +
		"{{work_name}} for {{client_name}} ({{period_label}}) is due on {{due_date}}.\n\n" +
		"{{firm_name}}"
)
