// Command canteen is the terminal front end of the canteen client.
//
// Configuration comes from config/app.json, config/app.yaml, .env and the
// process environment, in that order:
//
//	canteen login -u alice -p secret
//	canteen menu dishes --category 2
//	canteen cart add 7 -n 2
//	canteen order submit --remark "no onions"
//	canteen admin advance 42
//
// Toasts raised by the stores are printed as they arrive; a rejected
// session prints a hint to log in again.
package main
