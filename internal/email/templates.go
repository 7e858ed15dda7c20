package email

import "html/template"

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Welcome, {{.Name}}!</h2>
  <p>Your account is ready. Share your referral link with friends and earn
  credits every time one of them makes their first purchase.</p>
  <p>Your referral code: <strong>{{.ReferralCode}}</strong></p>
  <p><a href="{{.ReferralLink}}">{{.ReferralLink}}</a></p>
</div>
`))

var referralSignupTemplate = template.Must(template.New("referral_signup").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Good news, {{.ReferrerID}}!</h2>
  <p><strong>{{.NewUserName}}</strong> ({{.NewUserEmail}}) just signed up
  using your referral link.</p>
  <p>You will earn credits as soon as they make their first purchase.</p>
</div>
`))

var firstPurchaseTemplate = template.Must(template.New("first_purchase").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Congratulations on your first purchase!</h2>
  <p>You earned <strong>{{.CreditsEarned}}</strong> credits.</p>
  <p>Your balance is now <strong>{{.Balance}}</strong> credits.</p>
</div>
`))

var referralConversionTemplate = template.Must(template.New("referral_conversion").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Your referral converted!</h2>
  <p>Hi {{.ReferrerID}}, the user you referred ({{.BuyerEmail}}) just made
  their first purchase.</p>
  <p>You earned <strong>{{.CreditsEarned}}</strong> credits.</p>
</div>
`))

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Password reset</h2>
  <p>We received a request to reset your password. Click the link below to
  choose a new one. The link expires in one hour.</p>
  <p><a href="{{.ResetLink}}">Reset password</a></p>
  <p>If you did not request this, you can safely ignore this email.</p>
</div>
`))
