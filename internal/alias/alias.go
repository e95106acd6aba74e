// Package alias maps short provider names onto canonical SMTP endpoints.
package alias

import (
	"sort"
	"strings"
)

// Provider is one canonical SMTP endpoint and the names that point at it
type Provider struct {
	Host  string
	Names []string
}

// providers is grouped by kind: consumer webmail, transactional, regional ISPs, hosting.
var providers = []Provider{
	// Consumer webmail
	{Host: "smtp.gmail.com", Names: []string{"gmail", "googlemail", "google", "gsuite", "workspace", "google-workspace"}},
	{Host: "smtp.office365.com", Names: []string{"office365", "o365", "outlook", "hotmail", "live", "msn", "microsoft", "exchange-online"}},
	{Host: "smtp.mail.yahoo.com", Names: []string{"yahoo", "ymail", "rocketmail"}},
	{Host: "smtp.mail.me.com", Names: []string{"icloud", "me", "mac", "apple"}},
	{Host: "smtp.aol.com", Names: []string{"aol", "aim"}},
	{Host: "smtp.zoho.com", Names: []string{"zoho", "zohomail"}},
	{Host: "smtp.fastmail.com", Names: []string{"fastmail", "fm"}},
	{Host: "smtp.gmx.com", Names: []string{"gmx", "gmx.com"}},
	{Host: "smtp.mail.ru", Names: []string{"mailru", "mail.ru"}},
	{Host: "smtp.yandex.com", Names: []string{"yandex", "ya"}},

	// Transactional providers
	{Host: "smtp.sendgrid.net", Names: []string{"sendgrid", "twilio-sendgrid"}},
	{Host: "smtp.mailgun.org", Names: []string{"mailgun"}},
	{Host: "smtp.postmarkapp.com", Names: []string{"postmark", "postmarkapp"}},
	{Host: "smtp-relay.brevo.com", Names: []string{"brevo", "sendinblue"}},
	{Host: "smtp.mandrillapp.com", Names: []string{"mandrill", "mailchimp"}},
	{Host: "email-smtp.us-east-1.amazonaws.com", Names: []string{"ses", "amazon-ses", "aws", "aws-ses"}},
	{Host: "smtp.sparkpostmail.com", Names: []string{"sparkpost"}},
	{Host: "live.smtp.mailtrap.io", Names: []string{"mailtrap"}},
	{Host: "smtp.resend.com", Names: []string{"resend"}},
	{Host: "smtp-relay.gmail.com", Names: []string{"gmail-relay", "google-relay"}},

	// Regional ISPs
	{Host: "smtp.comcast.net", Names: []string{"comcast", "xfinity"}},
	{Host: "outbound.att.net", Names: []string{"att", "at&t", "sbcglobal", "bellsouth"}},
	{Host: "smtp.verizon.net", Names: []string{"verizon"}},
	{Host: "smtp.cox.net", Names: []string{"cox"}},
	{Host: "mail.twc.com", Names: []string{"spectrum", "charter", "roadrunner", "twc"}},
	{Host: "smtp.centurylink.net", Names: []string{"centurylink", "lumen"}},
	{Host: "smtp.btinternet.com", Names: []string{"bt", "btinternet"}},
	{Host: "smtp.orange.fr", Names: []string{"orange", "wanadoo"}},
	{Host: "securesmtp.t-online.de", Names: []string{"t-online", "telekom"}},
	{Host: "smtp.web.de", Names: []string{"web.de", "webde"}},

	// Hosting providers
	{Host: "smtp.ionos.com", Names: []string{"ionos", "1and1", "1&1"}},
	{Host: "smtpout.secureserver.net", Names: []string{"godaddy", "secureserver"}},
	{Host: "mail.privateemail.com", Names: []string{"namecheap", "privateemail"}},
	{Host: "smtp.hostinger.com", Names: []string{"hostinger"}},
	{Host: "smtp.dreamhost.com", Names: []string{"dreamhost"}},
	{Host: "smtp.ovh.net", Names: []string{"ovh"}},
	{Host: "mail.gandi.net", Names: []string{"gandi"}},
	{Host: "smtp.migadu.com", Names: []string{"migadu"}},
	{Host: "smtp.purelymail.com", Names: []string{"purelymail"}},
}

// table is built once from providers and never modified afterwards
var table = buildTable(providers)

func buildTable(list []Provider) map[string]string {
	m := make(map[string]string)
	for _, p := range list {
		for _, name := range p.Names {
			m[name] = p.Host
		}
	}
	return m
}

// Lookup returns the canonical host for a known alias
func Lookup(input string) (string, bool) {
	host, ok := table[strings.ToLower(strings.TrimSpace(input))]
	return host, ok
}

// Resolve returns the canonical host for an alias, or the input unchanged
func Resolve(input string) string {
	if host, ok := Lookup(input); ok {
		return host
	}
	return input
}

// Known returns every provider with sorted names, ordered by host
func Known() []Provider {
	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		names := append([]string(nil), p.Names...)
		sort.Strings(names)
		out = append(out, Provider{Host: p.Host, Names: names})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Host < out[j].Host
	})
	return out
}
