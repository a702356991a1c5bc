// Package team turns raw git history into collaboration signals: related
// branches, related commits, suggested reviewers, conflicting files,
// activity summaries and advisory insights.
//
// Everything here is pure. Fetching history is the caller's job; this
// package only parses command output and ranks what was fetched.
//
// Relatedness is decided by a Matcher, a token heuristic with stop words,
// keyword families ("oauth" and "jwt" both belong to auth) and prefix
// matching. Swap in a custom Matcher to tune it.
package team
