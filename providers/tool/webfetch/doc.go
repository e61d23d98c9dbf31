// Package webfetch fetches a URL and returns bounded, credential-free text
// together with a diagnostic record.
//
// A fetch resolves the input URL (https:// is assumed when no scheme is
// given), refuses private, loopback and cloud metadata hosts, and follows at
// most ten redirects by hand so that every hop is checked again. Only textual
// content types are read. The body is streamed to a temporary file while a
// head of at most 2000 lines and 50 KiB is kept for display; the head is then
// cut to Input.MaxChars. When anything was cut the file is kept and its path
// is reported in Details.FullOutputPath.
//
// The smart strategy first samples the page. When the response advertises a
// markdown alternate, through a Link header or a <link rel="alternate"> tag,
// or when the page is a JavaScript shell with a well-known raw source, that
// alternate is fetched instead.
//
// Basic usage:
//
//	res, _ := webfetch.Fetch(ctx, webfetch.Input{URL: "go.dev/doc", Strategy: webfetch.StrategySmart})
//	fmt.Println(res.Text)
//
// Failures never surface as Go errors. They are reported with Result.IsError
// and an HTTP-like Details.Status: 400 for bad input, 403 for refused hosts,
// 499 for cancellation, 508 for redirect loops and 500 for transport errors
// and timeouts.
//
// Requests to private hosts can be allowed with Config.AllowPrivateHosts or,
// for the package-level Fetch, by setting WEBFETCH_ALLOW_PRIVATE_HOSTS=1.
package webfetch
