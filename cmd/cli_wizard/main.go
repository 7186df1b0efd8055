package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"uni-wizard/internal/config"
	"uni-wizard/internal/domain"
	"uni-wizard/internal/scoring"
	"uni-wizard/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewNop()
	if cfg.LogDebug {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	policy, err := service.LoadAdvisoryPolicy(cfg.AdvisoryPolicyFile)
	if err != nil {
		fmt.Printf("Advisory policy not loaded (%v), using defaults.\n", err)
	}
	scorer := scoring.NewHTTPClient(cfg.ScoringBaseURL, cfg.ScoringTimeout(), logger)
	session := service.NewWizardSession(scorer, service.NewAdvisor(policy), service.WizardOptions{
		DefaultCountry: cfg.DefaultCountry,
		ReplyDelay:     cfg.BotReplyDelay(),
	}, logger)
	service.RunSync(ctx, session, session.Init())

	for {
		var quit bool
		switch session.View() {
		case service.ViewLanding:
			quit = landingMenu(ctx, reader, session)
		case service.ViewIntake:
			if session.Step() == 1 {
				academicFlow(reader, session)
			} else {
				quit = preferencesMenu(ctx, reader, session)
			}
		case service.ViewResults:
			quit = resultsMenu(ctx, reader, session)
		}
		if quit {
			fmt.Println("Bye!")
			return
		}
	}
}

func readLine(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		os.Exit(0)
	}
	return strings.TrimSpace(line)
}

// ask muestra el valor actual; una línea vacía lo conserva.
func ask(reader *bufio.Reader, label, current string) *string {
	v := readLine(reader, fmt.Sprintf("%s [%s]: ", label, current))
	if v == "" {
		return nil
	}
	return &v
}

func landingMenu(ctx context.Context, reader *bufio.Reader, s *service.WizardSession) bool {
	snap := s.Snapshot()
	fmt.Println("\n===== Study Abroad Wizard =====")
	countries := domain.Countries()
	for i, c := range countries {
		marker := " "
		if c.Code == snap.Country {
			marker = "*"
		}
		status := ""
		if !c.Available {
			status = " (coming soon)"
		}
		fmt.Printf("%s[%d] %s %s%s\n", marker, i+1, c.Flag, c.Name, status)
		if c.Code == snap.Country && c.Tagline != "" {
			fmt.Printf("      %s\n", c.Tagline)
		}
	}
	if snap.CatalogError != "" {
		fmt.Println("  !", snap.CatalogError)
	}
	fmt.Println("[S] Start  [Q] Quit")

	choice := strings.ToUpper(readLine(reader, "Select: "))
	switch choice {
	case "S":
		if err := s.Start(); err != nil {
			fmt.Printf("Cannot start: %v\n", err)
		}
	case "Q":
		return true
	default:
		idx, err := strconv.Atoi(choice)
		if err != nil || idx < 1 || idx > len(countries) {
			fmt.Println("Invalid option.")
			return false
		}
		cmd, err := s.SelectCountry(countries[idx-1].Code)
		if err != nil {
			fmt.Printf("Cannot select %s: %v\n", countries[idx-1].Name, err)
			return false
		}
		service.RunSync(ctx, s, cmd)
	}
	return false
}

func academicFlow(reader *bufio.Reader, s *service.WizardSession) {
	p := s.Profile()
	fmt.Println("\n--- Step 1: Academic profile ---")
	patch := domain.ProfilePatch{
		Name:        ask(reader, "Name", p.Name),
		CGPA:        ask(reader, "CGPA (out of 10)", p.CGPA),
		Backlogs:    ask(reader, "Backlogs", p.Backlogs),
		WorkExYears: ask(reader, "Work experience (years)", p.WorkExYears),
	}
	proofs := make([]string, len(domain.EnglishProofs))
	for i, e := range domain.EnglishProofs {
		proofs[i] = string(e)
	}
	patch.EnglishProofType = ask(reader, "English proof ("+strings.Join(proofs, "/")+")", string(p.EnglishProofType))
	patch.EnglishScore = ask(reader, "English score", p.EnglishScore)
	nonMath := readLine(reader, fmt.Sprintf("Non-math background? (y/n) [%t]: ", p.NonMathBackground))
	if nonMath != "" {
		v := strings.HasPrefix(strings.ToLower(nonMath), "y")
		patch.NonMathBackground = &v
	}
	if err := s.UpdateProfile(patch); err != nil {
		fmt.Printf("Cannot update profile: %v\n", err)
		return
	}

	err := s.NextStep()
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		printErrors(s.Snapshot().AcademicErrors)
	case err != nil:
		fmt.Printf("Cannot continue: %v\n", err)
	}
}

func preferencesMenu(ctx context.Context, reader *bufio.Reader, s *service.WizardSession) bool {
	p := s.Profile()
	snap := s.Snapshot()
	fmt.Println("\n--- Step 2: Preferences ---")
	err := s.UpdateProfile(domain.ProfilePatch{
		TargetIntake:    ask(reader, "Target intake", p.TargetIntake),
		BudgetLakhs:     ask(reader, "Budget (lakhs)", p.BudgetLakhs),
		MaxUniversities: ask(reader, "Max universities (1-15)", p.MaxUniversities),
	})
	if err != nil {
		fmt.Printf("Cannot update preferences: %v\n", err)
		return false
	}

	if snap.CatalogError != "" {
		fmt.Println("  !", snap.CatalogError)
	}
	for {
		p = s.Profile()
		fmt.Println("Subject clusters:")
		for i, c := range snap.Clusters {
			mark := " "
			if p.HasCluster(c.SubjectCluster) {
				mark = "x"
			}
			fmt.Printf("  [%s] %d. %s (%d courses, e.g. %s)\n", mark, i+1, c.DisplayName, c.Count, c.ExampleCourse)
		}
		line := readLine(reader, "Toggle clusters (e.g. 1,3) or Enter to continue: ")
		if line == "" {
			break
		}
		for _, part := range strings.Split(line, ",") {
			idx, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || idx < 1 || idx > len(snap.Clusters) {
				fmt.Printf("Skipping %q\n", part)
				continue
			}
			if _, err := s.ToggleCluster(snap.Clusters[idx-1].SubjectCluster); err != nil {
				fmt.Printf("Cannot toggle %s: %v\n", snap.Clusters[idx-1].DisplayName, err)
			}
		}
	}

	fmt.Println("[S] Get recommendations  [B] Back  [R] Start over  [Q] Quit")
	switch strings.ToUpper(readLine(reader, "Select: ")) {
	case "S":
		cmd, err := s.Submit()
		if errors.Is(err, service.ErrValidationFailed) {
			next := s.Snapshot()
			printErrors(next.AcademicErrors)
			printErrors(next.PreferenceErrors)
			return false
		}
		if err != nil {
			fmt.Printf("Cannot submit: %v\n", err)
			return false
		}
		fmt.Println("Finding your best-fit universities...")
		service.RunSync(ctx, s, cmd)
	case "B":
		if err := s.BackToProfile(); err != nil {
			fmt.Printf("Cannot go back: %v\n", err)
		}
	case "R":
		s.Reset()
	case "Q":
		return true
	}
	return false
}

func resultsMenu(ctx context.Context, reader *bufio.Reader, s *service.WizardSession) bool {
	snap := s.Snapshot()
	fmt.Println("\n===== Results =====")
	if snap.Error != "" {
		fmt.Println("!", snap.Error)
	} else {
		if snap.GlobalAdvice != nil && snap.GlobalAdvice.Headline != "" {
			fmt.Println("🧠", snap.GlobalAdvice.Headline)
		}
		fmt.Printf("SAFE %d | MODERATE %d | AMBITIOUS %d\n", snap.Counts.Safe, snap.Counts.Moderate, snap.Counts.Ambitious)
		for i, r := range snap.Recommendations {
			marks := ""
			if snap.ActiveRecommendation != nil && snap.ActiveRecommendation.CourseID == r.CourseID {
				marks += " <"
			}
			for _, id := range snap.CompareIDs {
				if id == r.CourseID {
					marks += " [compare]"
				}
			}
			fmt.Printf("%d. [%s] %s - %s%s\n", i+1, strings.ToUpper(string(r.LevelBand)), r.UniversityName, r.CourseName, marks)
		}
	}
	fmt.Println("[D n] Details  [C n] Compare toggle  [T] Compare table  [X] Clear compare")
	fmt.Println("[H] Help bot  [F] Back to form  [R] Start over  [Q] Quit")

	fields := strings.Fields(strings.ToUpper(readLine(reader, "Select: ")))
	if len(fields) == 0 {
		return false
	}
	pick := func() (domain.CourseID, bool) {
		if len(fields) < 2 {
			return "", false
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil || idx < 1 || idx > len(snap.Recommendations) {
			return "", false
		}
		return snap.Recommendations[idx-1].CourseID, true
	}

	switch fields[0] {
	case "D":
		if id, ok := pick(); ok && s.SelectRecommendation(id) == nil {
			printDetail(s.Snapshot().ActiveRecommendation)
		}
	case "C":
		if id, ok := pick(); ok {
			was := contains(snap.CompareIDs, id)
			if added, err := s.ToggleCompare(id); err == nil && !was && !added {
				fmt.Printf("You can compare at most %d courses.\n", service.MaxCompare)
			}
		}
	case "T":
		printCompare(s.Snapshot().Compare)
	case "X":
		s.ClearCompare()
	case "H":
		botFlow(ctx, reader, s)
	case "F":
		if err := s.BackToForm(); err != nil {
			fmt.Printf("Cannot go back: %v\n", err)
		}
	case "R":
		s.Reset()
	case "Q":
		return true
	}
	return false
}

func botFlow(ctx context.Context, reader *bufio.Reader, s *service.WizardSession) {
	if err := s.OpenBot(); err != nil {
		fmt.Printf("Cannot open help bot: %v\n", err)
		return
	}
	defer s.CloseBot()
	shown := 0
	printNew := func() {
		tr := s.Transcript()
		for _, e := range tr[shown:] {
			who := "You"
			if e.Speaker == domain.SpeakerBot {
				who = "Bot"
			}
			fmt.Printf("%s > %s\n", who, e.Text)
		}
		shown = len(tr)
	}

	fmt.Println("---- Help bot (type 'exit' to go back) ----")
	quick := service.QuickQuestions()
	for i, q := range quick {
		fmt.Printf("  [%d] %s\n", i+1, q)
	}
	printNew()
	for {
		text := readLine(reader, "You > ")
		if strings.EqualFold(text, "exit") {
			return
		}
		if idx, err := strconv.Atoi(text); err == nil && idx >= 1 && idx <= len(quick) {
			text = quick[idx-1]
		}
		cmd, err := s.SendBotMessage(text)
		if err != nil {
			continue
		}
		// La línea del usuario ya fue impresa por la terminal.
		shown++
		service.RunSync(ctx, s, cmd)
		printNew()
	}
}

func printErrors(errs service.FieldErrors) {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  ✗ %s: %s\n", k, errs[k])
	}
}

func printDetail(r *domain.Recommendation) {
	if r == nil {
		return
	}
	fmt.Printf("\n%s, %s (%s)\n%s\n", r.UniversityName, r.City, r.CountryName, r.CourseName)
	fmt.Printf("Band: %s | Total first year: %.1fL (tuition %.1fL + living %.1fL + extras %.1fL)\n",
		strings.ToUpper(string(r.LevelBand)), r.TotalFirstYearCostLakhs, r.TuitionFeeLakhs, r.EstimatedLivingLakhs, r.ExtraCostsLakhs)
	if r.IntakesText != "" {
		fmt.Println("Intakes:", r.IntakesText)
	}
	if e := r.EnglishRequirement; e != nil {
		if e.MinIELTSOverall != nil {
			fmt.Printf("IELTS minimum: %.1f\n", *e.MinIELTSOverall)
		}
		if e.MinPTEOverall != nil {
			fmt.Printf("PTE minimum: %.0f\n", *e.MinPTEOverall)
		}
		if e.EnglishOKNow != nil && !*e.EnglishOKNow {
			fmt.Println("⚠️ Your current English proof may not be enough for this course.")
		}
	}
	for _, line := range append(append([]string{}, r.WhyUniversity...), r.WhyCourse...) {
		fmt.Println(" +", line)
	}
	for _, con := range r.Cons {
		fmt.Println(" -", con)
	}
	if r.ShortAdvice != "" {
		fmt.Println("💡", r.ShortAdvice)
	}
	if r.OfficialCourseURL != "" {
		fmt.Println(r.OfficialCourseURL)
	}
}

func printCompare(recs []domain.Recommendation) {
	if len(recs) == 0 {
		fmt.Println("Nothing to compare yet.")
		return
	}
	fmt.Printf("%-28s %-10s %-10s %-8s\n", "University", "Band", "Total (L)", "Visa")
	for _, r := range recs {
		fmt.Printf("%-28.28s %-10s %-10.1f %-8s\n", r.UniversityName, r.LevelBand, r.TotalFirstYearCostLakhs, r.VisaRisk)
	}
}

func contains(ids []domain.CourseID, id domain.CourseID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
