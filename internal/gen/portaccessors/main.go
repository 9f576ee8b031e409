// Command portaccessors generates lock-guarded accessor types for
// structs meant to live on a blackboard as KindCustom entries shared
// across ThreadedAction workers and the tick goroutine. A struct named
// FooShared becomes a Foo type wrapping *FooShared behind a RWMutex, with
// Get<Field>/Set<Field> accessors plus Lock/Unlock/RLock/RUnlock and an
// OnChange<Name> hook (no Marshal/Unmarshal methods are generated), so the
// underlying value never needs its own locking logic.
package main

import (
	"flag"
	"fmt"
	"go/types"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/go/packages"
)

var (
	sharedRegexp = regexp.MustCompile(`^(.*)Shared$`)
	claRegexp    = regexp.MustCompile(`command-line-arguments\.`)
)

func cap(s string) string {
	return strings.ToUpper(s[0:1]) + s[1:]
}

func main() {
	in := flag.String("in", "", "file to read")
	out := flag.String("out", "", "file to write")
	pkg := flag.String("pkg", "", "package of out")

	flag.Parse()

	if *in == "" || *out == "" || *pkg == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := &packages.Config{Mode: packages.NeedTypes}
	pkgs, err := packages.Load(cfg, *in)
	if err != nil {
		log.Panic(err)
	}

	f := jen.NewFile(*pkg)
	f.PackageComment("Code generated by portaccessors, DO NOT EDIT.")

	for _, pkg := range pkgs {
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			obj := scope.Lookup(name)
			match := sharedRegexp.FindStringSubmatch(obj.Name())
			if match == nil {
				continue
			}
			structType, ok := obj.Type().Underlying().(*types.Struct)
			if !ok {
				continue
			}
			wrapperName := cap(match[1])
			onChangeName := fmt.Sprintf("OnChange%s", wrapperName)

			f.Type().Id(onChangeName).Func().Params(jen.Op("*").Id(wrapperName))
			f.Func().Params(jen.Id("h").Id(onChangeName)).Id("call").Params(
				jen.Id("v").Op("*").Id(wrapperName),
			).Block(
				jen.If(jen.Id("h").Op("!=").Id("nil")).Block(jen.Id("h").Call(jen.Id("v"))),
			)

			f.Type().Id(wrapperName).Struct(
				jen.Id("Unsafe").Op("*").Id(match[0]),
				jen.Id("OnChange").Id(onChangeName).Tag(map[string]string{"json": "-"}),
				jen.Id("mutex").Qual("sync", "RWMutex"),
			)
			f.Func().Params(jen.Id("v").Op("*").Id(wrapperName)).Id("Lock").Params().Block(
				jen.Id("v").Dot("mutex").Dot("Lock").Call(),
			)
			f.Func().Params(jen.Id("v").Op("*").Id(wrapperName)).Id("Unlock").Params().Block(
				jen.Id("v").Dot("mutex").Dot("Unlock").Call(),
				jen.Id("v").Dot("OnChange").Dot("call").Call(jen.Id("v")),
			)
			f.Func().Params(jen.Id("v").Op("*").Id(wrapperName)).Id("RLock").Params().Block(
				jen.Id("v").Dot("mutex").Dot("RLock").Call(),
			)
			f.Func().Params(jen.Id("v").Op("*").Id(wrapperName)).Id("RUnlock").Params().Block(
				jen.Id("v").Dot("mutex").Dot("RUnlock").Call(),
			)

			for i := 0; i < structType.NumFields(); i++ {
				field := structType.Field(i)
				fieldType := claRegexp.ReplaceAllString(field.Type().String(), "")
				f.Func().Params(jen.Id("v").Op("*").Id(wrapperName)).Id(fmt.Sprintf("Get%s", field.Name())).Params().Id(fieldType).Block(
					jen.Id("v").Dot("RLock").Call(),
					jen.Defer().Id("v").Dot("RUnlock").Call(),
					jen.Return(jen.Id("v").Dot("Unsafe").Dot(field.Name())),
				)
				f.Func().Params(jen.Id("v").Op("*").Id(wrapperName)).Id(fmt.Sprintf("Set%s", field.Name())).Params(
					jen.Id("p").Id(fieldType),
				).Block(
					jen.Id("v").Dot("Lock").Call(),
					jen.Defer().Id("v").Dot("Unlock").Call(),
					jen.Id("v").Dot("Unsafe").Dot(field.Name()).Op("=").Id("p"),
				)
			}
		}
	}

	if err := f.Save(*out); err != nil {
		log.Panic(err)
	}
}
