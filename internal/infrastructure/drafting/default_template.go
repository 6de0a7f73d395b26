package drafting

// defaultDraftTemplate is the built-in demand letter. Deployments can
// replace it via the draft.template_path configuration key; the override
// receives the same view data and helper functions.
const defaultDraftTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 13px; color: #1a1a1a; margin: 40px; }
  .header { border-bottom: 2px solid #1a1a1a; padding-bottom: 12px; margin-bottom: 24px; }
  .meta { float: right; text-align: right; }
  h1 { font-size: 18px; margin: 0; }
  table.summary { width: 100%; border-collapse: collapse; margin: 20px 0; }
  table.summary th, table.summary td { border: 1px solid #ccc; padding: 8px 12px; text-align: left; }
  table.summary th { background: #f4f4f4; }
  .amount { font-size: 16px; font-weight: bold; }
  .footer { margin-top: 40px; font-size: 11px; color: #666; }
</style>
</head>
<body>
  <div class="header">
    <div class="meta">
      <div>Draft No: <strong>{{.DraftNumber}}</strong></div>
      <div>Date: {{formatDate .IssueDate}}</div>
      <div>Due Date: <strong>{{formatDate .DueDate}}</strong></div>
    </div>
    <h1>Demand for Payment</h1>
    <div>Plan {{.PlanNumber}}</div>
  </div>

  <p>
    To,<br>
    <strong>{{.CustomerName}}</strong><br>
    {{if .Address}}{{.Address}}<br>{{end}}
    {{if .CustomerPhone}}Phone: {{.CustomerPhone}}<br>{{end}}
    {{if .CustomerEmail}}Email: {{.CustomerEmail}}{{end}}
  </p>

  <p>
    Dear {{.CustomerName}},
  </p>

  <p>
    {{if .Phase}}
    We are pleased to inform you that construction of <strong>{{.Phase}}</strong>
    for your flat <strong>{{.FlatNumber}}, Tower {{.Tower}}</strong> has reached
    {{formatPercent .Threshold}} completion. As per your payment plan, the
    instalment below is now due.
    {{else}}
    As per the schedule of your payment plan for flat
    <strong>{{.FlatNumber}}, Tower {{.Tower}}</strong>, the instalment below is
    now due.
    {{end}}
  </p>

  <table class="summary">
    <tr><th>Milestone</th><th>Flat</th><th>Amount Due</th></tr>
    <tr>
      <td>{{.Sequence}}. {{.Milestone}}{{if .Description}} &mdash; {{.Description}}{{end}}</td>
      <td>{{.FlatNumber}}, Tower {{.Tower}}, Floor {{.Floor}}</td>
      <td class="amount">{{formatMoney .Amount}}</td>
    </tr>
  </table>

  <table class="summary">
    <tr>
      <th>Total Consideration</th>
      <th>Paid to Date</th>
      <th>Balance Outstanding</th>
    </tr>
    <tr>
      <td>{{formatMoney .TotalAmount}}</td>
      <td>{{formatMoney .PaidAmount}}</td>
      <td>{{formatMoney .BalanceAmount}}</td>
    </tr>
  </table>

  <p>
    Kindly remit <strong>{{formatMoney .Amount}}</strong> on or before
    <strong>{{formatDate .DueDate}}</strong> quoting draft number
    {{.DraftNumber}} with your payment.
  </p>

  <div class="footer">
    This is a system-generated demand draft. Amounts already remitted against
    earlier instalments are reflected above.
  </div>
</body>
</html>`
