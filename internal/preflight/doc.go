// Package preflight provides readiness checks for the paths and services
// Teko depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failing check so a
//     misconfigured deployment is visible before the first capture.
//   - The CLI "teko status" command renders RunAll and CheckDaemon results.
//
// Checks never return errors; failures are reported in Result.Detail.
package preflight
