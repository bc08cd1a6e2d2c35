// Package tutor is the conversation partner of yopuedo-devserver. It has no
// model behind it: replies are picked deterministically from a small set,
// translations of known partner lines are looked up, and corrections apply
// a few mechanical rules. That is enough to drive the chat client end to end.
package tutor
